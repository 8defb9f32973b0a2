// Package devnode publishes driver devices as named pipes.
//
// It is the userspace stand-in for character device registration: instead
// of a device number and a /dev entry, each registered device gets a
// directory holding two FIFOs.
//
// # Layout
//
//	/run/axififo/              # Framework directory
//	└── axi_fifo/              # One directory per device node
//	    ├── read               # Each open yields one READ_DATA line, then EOF
//	    └── write              # Bytes written during one open are decoded
//
// Every client open of either FIFO opens a new file on the device, so the
// read FIFO behaves like `cat /dev/axi_fifo` and the write FIFO like
// `echo 0x10 > /dev/axi_fifo`.
//
// # Concurrency
//
// Each FIFO is served by one goroutine, so opens of the same FIFO are handled
// one after another. [Framework.Teardown] stops both goroutines, including
// any that are blocked waiting for a client, and removes the directory.
//
// # Usage
//
//	fw := devnode.New(devnode.DefaultDir)
//	defer fw.Close()
//
//	h, err := fw.Register("axi_fifo", dev)
//	if err != nil {
//	    return err
//	}
//	path, err := fw.CreateNode(h)
package devnode
