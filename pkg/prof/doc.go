// Package prof exposes runtime profiling for the axififo command.
//
// Profiling is compiled in only with the "profile" build tag:
//
//	go build -tags profile ./cmd/axififo
//
// Without the tag every function is a no-op and [Enabled] is false, so call
// sites stay in place at no cost.
//
// # CPU and Heap Profiles
//
// The command's -cpuprofile and -memprofile flags use [StartCPU], [StopCPU]
// and [Snapshot]:
//
//	if err := prof.StartCPU("cpu.prof"); err != nil {
//	    return err
//	}
//	defer prof.StopCPU()
//
// # HTTP Endpoints
//
// [Register] mounts the net/http/pprof handlers on a mux. The serve command
// mounts them beside /metrics, so with -metrics :9102 the profiles are at
// http://localhost:9102/debug/pprof/.
package prof
