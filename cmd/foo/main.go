// Command foo inspects and exercises the Born foo accelerator backend.
package main

import (
	"flag"
	"os"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/envconfig"
)

func main() {
	klog.InitFlags(nil)
	if v := envconfig.Debug(); v > 0 {
		_ = flag.Set("v", strconv.Itoa(v))
	}
	defer klog.Flush()

	if err := NewCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
