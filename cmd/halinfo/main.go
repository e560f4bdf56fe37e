// halinfo inspects the HAL: registered drivers, the devices they enumerate,
// and whether a device can actually be created.
//
// Examples:
//
//	halinfo drivers
//	halinfo devices --driver cuda
//	halinfo probe --driver cuda --device 1
package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/accelgo/hal"
	_ "github.com/accelgo/hal/cuda"
	_ "github.com/accelgo/hal/host"
)

var (
	flagDriver             string
	flagDeviceID           uint64
	flagDefaultDeviceIndex int
)

// versionReporter is implemented by drivers that can report their native
// driver version.
type versionReporter interface {
	DriverVersion() (major, minor int, err error)
}

// memoryReporter is implemented by devices that can report total memory.
type memoryReporter interface {
	TotalMemory() (uint64, error)
}

func main() {
	root := &cobra.Command{
		Use:   "halinfo",
		Short: "Inspect HAL drivers and devices",
	}
	root.PersistentFlags().StringVar(&flagDriver, "driver", "host", "driver name to use")
	root.PersistentFlags().IntVar(&flagDefaultDeviceIndex, "default-device-index", 0,
		"enumerated device index used when no device id is given")

	klog.InitFlags(nil)
	root.PersistentFlags().AddGoFlagSet(goflag.CommandLine)

	driversCmd := &cobra.Command{
		Use:   "drivers",
		Short: "List registered drivers and their availability",
		Run:   runDrivers,
	}

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "Enumerate the devices of a driver",
		Run:   runDevices,
	}

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Create one device and report what it is",
		Run:   runProbe,
	}
	probeCmd.Flags().Uint64Var(&flagDeviceID, "device", uint64(hal.DeviceIDUnspecified),
		"device id from a prior enumeration (default: driver's default device)")

	root.AddCommand(driversCmd, devicesCmd, probeCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func options() hal.DriverOptions {
	return hal.DriverOptions{DefaultDeviceIndex: flagDefaultDeviceIndex}
}

func runDrivers(*cobra.Command, []string) {
	table := newTable([]string{"NAME", "AVAILABLE", "DETAIL"})
	for _, name := range hal.Default().Drivers() {
		driver, err := hal.Create(name, options())
		if err != nil {
			table.Append([]string{name, "no", err.Error()})
			continue
		}
		detail := ""
		if vr, ok := driver.(versionReporter); ok {
			if major, minor, err := vr.DriverVersion(); err == nil {
				detail = fmt.Sprintf("driver version %d.%d", major, minor)
			}
		}
		table.Append([]string{name, "yes", detail})
		driver.Release()
	}
	table.Render()
}

func runDevices(*cobra.Command, []string) {
	driver := must.M1(hal.Create(flagDriver, options()))
	defer driver.Release()

	infos := must.M1(driver.EnumerateDevices())
	table := newTable([]string{"INDEX", "ID", "NAME", "MEMORY"})
	for i, info := range infos {
		table.Append([]string{
			fmt.Sprint(i), fmt.Sprint(uint64(info.ID)), info.Name,
			deviceMemory(driver, info.ID),
		})
	}
	table.Render()
	if len(infos) == 0 {
		fmt.Printf("driver %q reports no devices\n", flagDriver)
	}
}

// deviceMemory creates the device just long enough to query its total
// memory. Drivers or devices that cannot report it get a "-" cell.
func deviceMemory(driver hal.Driver, id hal.DeviceID) string {
	device, err := driver.CreateDevice(id)
	if err != nil {
		return "-"
	}
	defer device.Release()
	mr, ok := device.(memoryReporter)
	if !ok {
		return "-"
	}
	mem, err := mr.TotalMemory()
	if err != nil {
		return "-"
	}
	return humanize.IBytes(mem)
}

func runProbe(*cobra.Command, []string) {
	driver := must.M1(hal.Create(flagDriver, options()))
	defer driver.Release()

	device := must.M1(driver.CreateDevice(hal.DeviceID(flagDeviceID)))
	defer device.Release()

	fmt.Printf("driver:  %s\n", driver.Name())
	fmt.Printf("device:  %s (id %d)\n", device.Name(), uint64(device.ID()))
	if mr, ok := device.(memoryReporter); ok {
		if mem, err := mr.TotalMemory(); err == nil {
			fmt.Printf("memory:  %s\n", humanize.IBytes(mem))
		}
	}
}
