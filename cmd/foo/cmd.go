package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/backend/foo"
	"github.com/born-ml/foo/internal/capability"
	"github.com/born-ml/foo/internal/envconfig"
	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/registry"
	"github.com/born-ml/foo/tensor"
)

const version = "v0.1.0-dev"

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "foo",
		Short: "Inspect and exercise the foo accelerator backend",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	rootCmd.PersistentFlags().String("driver", "", "Native driver (default $"+envconfig.DriverVar+" or \""+envconfig.DefaultDriver+"\")")
	rootCmd.PersistentFlags().Int("devices", -1, "Number of sim devices (default $"+envconfig.SimDevicesVar+" or 1)")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	cobra.EnableCommandSorting = false

	devicesCmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"ls"},
		Short:   "List foo devices",
		Args:    cobra.NoArgs,
		RunE:    devicesHandler,
	}

	capsCmd := &cobra.Command{
		Use:   "caps",
		Short: "Show the capabilities the driver declares",
		Args:  cobra.NoArgs,
		RunE:  capsHandler,
	}

	addCmd := &cobra.Command{
		Use:     "add A B",
		Short:   "Add two comma separated vectors on a foo device",
		Example: "  foo add 1,2,3 4,5,6\n  foo add --dtype float16 1,2,3 10",
		Args:    cobra.ExactArgs(2),
		RunE:    binaryHandler(opAdd),
	}

	mulCmd := &cobra.Command{
		Use:     "mul A B",
		Aliases: []string{"multiply"},
		Short:   "Multiply two comma separated vectors on a foo device",
		Args:    cobra.ExactArgs(2),
		RunE:    binaryHandler(opMultiply),
	}

	for _, cmd := range []*cobra.Command{addCmd, mulCmd} {
		cmd.Flags().String("dtype", "float32", "Data type of both operands")
		cmd.Flags().Int("device", -1, "Device to run on (default: current device)")
	}

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show the environment variables the backend reads",
		Args:  cobra.NoArgs,
		RunE:  envHandler,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "foo backend %s (drivers: %s)\n", version, strings.Join(native.Drivers(), ", "))
		},
	}

	rootCmd.AddCommand(
		devicesCmd,
		capsCmd,
		addCmd,
		mulCmd,
		envCmd,
		versionCmd,
	)

	return rootCmd
}

// openBackend initializes the host registry from the environment and creates the
// foo backend through it. Flags that override the driver or device count bypass
// the registry, whose constructor is bound to the environment configuration.
func openBackend(cmd *cobra.Command) (*foo.Backend, error) {
	if cmd.Flags().Changed("driver") || cmd.Flags().Changed("devices") {
		cfg := foo.ConfigFromEnv()
		if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
			cfg.Driver = driver
		}
		if n, _ := cmd.Flags().GetInt("devices"); n >= 0 {
			cfg.Options.Devices = n
		}
		return foo.Open(cfg)
	}

	if err := registry.InitFromEnv(); err != nil {
		klog.Warningf("foo: %v", err)
	}
	if !registry.Lookup(foo.Name) {
		// Autoload disabled: importing the backend still registers it explicitly.
		klog.V(1).Infof("foo: autoload disabled by $%s, registering explicitly", envconfig.AutoloadVar)
		foo.Autoload()
	}
	b, err := registry.NewBackend(foo.Name)
	if err != nil {
		return nil, err
	}
	fb, ok := b.(*foo.Backend)
	if !ok {
		_ = b.Close()
		return nil, errors.Errorf("backend %q has unexpected type %T", foo.Name, b)
	}
	return fb, nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func devicesHandler(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	devices, err := b.Devices().Devices()
	if err != nil {
		return err
	}
	current, err := b.CurrentDevice()
	if err != nil {
		return err
	}

	var data [][]string
	for _, d := range devices {
		memory := "-"
		if d.MemoryBytes > 0 {
			memory = humanize.IBytes(d.MemoryBytes)
		}
		id := "-"
		if d.UUID != uuid.Nil {
			id = d.UUID.String()
		}
		marker := ""
		if d.Index == current {
			marker = "*"
		}
		data = append(data, []string{
			marker + tensor.Foo(d.Index).String(),
			d.Name,
			id,
			memory,
			strconv.FormatBool(d.Available),
		})
	}

	table := newTable(cmd.OutOrStdout(), "DEVICE", "NAME", "UUID", "MEMORY", "AVAILABLE")
	table.AppendBulk(data)
	table.Render()
	return nil
}

func capsHandler(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	caps := b.Probe().Capabilities()
	var data [][]string
	for _, f := range capability.Features {
		detail := ""
		if f == capability.FeatureAMP && caps.Supports(f) {
			var names []string
			for _, dt := range caps.AMPDTypes.Sorted() {
				names = append(names, dt.String())
			}
			detail = strings.Join(names, ", ")
		}
		data = append(data, []string{f.String(), strconv.FormatBool(caps.Supports(f)), detail})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "driver %q, available: %t\n", b.Devices().Extension().Name(), b.IsAvailable())
	table := newTable(out, "FEATURE", "SUPPORTED", "DETAIL")
	table.AppendBulk(data)
	table.Render()
	return nil
}

type binaryOp int

const (
	opAdd binaryOp = iota
	opMultiply
)

func binaryHandler(op binaryOp) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dtypeName, _ := cmd.Flags().GetString("dtype")
		dtype, err := tensor.ParseDataType(dtypeName)
		if err != nil {
			return err
		}
		a, err := parseVector(args[0], dtype)
		if err != nil {
			return err
		}
		c, err := parseVector(args[1], dtype)
		if err != nil {
			return err
		}

		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		if dev, _ := cmd.Flags().GetInt("device"); dev >= 0 {
			if err := b.SetDevice(dev); err != nil {
				return err
			}
		}

		var result *tensor.RawTensor
		if op == opAdd {
			result, err = b.Add(a, c)
		} else {
			result, err = b.Multiply(a, c)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %v\n", result.Device(), result.DType(), formatValues(result))
		return nil
	}
}

// parseVector parses "1,2,3" into a 1-D tensor on the host.
func parseVector(s string, dtype tensor.DataType) (*tensor.RawTensor, error) {
	fields := strings.Split(s, ",")
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q", s)
		}
		values[i] = v
	}
	return tensor.FromFloat64s(values, tensor.Shape{len(values)}, dtype, tensor.CPU)
}

func formatValues(t *tensor.RawTensor) string {
	values := t.Float64s()
	parts := make([]string, len(values))
	for i, v := range values {
		if t.DType() == tensor.Bool {
			parts[i] = strconv.FormatBool(v != 0)
		} else {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func envHandler(cmd *cobra.Command, args []string) error {
	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var data [][]string
	for _, name := range names {
		v := vars[name]
		data = append(data, []string{v.Name, fmt.Sprintf("%v", v.Value), v.Description})
	}
	table := newTable(cmd.OutOrStdout(), "NAME", "VALUE", "DESCRIPTION")
	table.AppendBulk(data)
	table.Render()
	return nil
}
