package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"modesrx/internal/app"
)

func main() {
	var config app.Config

	rootCmd := &cobra.Command{
		Use:   "modesrx",
		Short: "Mode S / ADS-B software receiver",
		Long: `Mode S / ADS-B software receiver.

Consumes complex baseband samples from an IQ capture file or an RTL-SDR
tuned to 1090 MHz, interpolates them to an integer number of samples per
chip, locates Mode S preambles by cross-correlation, demodulates the PPM
bit stream, validates the CRC, and writes decoded aircraft messages in
BaseStation (SBS) format.

Example usage:
  modesrx --input capture.iq --sample-rate 2400000
  modesrx --device 0 --gain 40`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion()
				return nil
			}

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	rootCmd.Flags().StringVarP(&config.InputFile, "input", "i", "", "IQ capture file (u8 interleaved I/Q); empty uses RTL-SDR")
	rootCmd.Flags().IntVarP(&config.DeviceIndex, "device", "d", 0, "RTL-SDR device index")
	rootCmd.Flags().Uint32VarP(&config.Frequency, "frequency", "f", app.DefaultFrequency, "Frequency to tune to (Hz)")
	rootCmd.Flags().IntVarP(&config.SampleRate, "sample-rate", "s", app.DefaultSampleRate, "Input sample rate (Hz)")
	rootCmd.Flags().IntVar(&config.FrameSamples, "frame-samples", app.DefaultFrameSamples, "Input samples per receive cycle")
	rootCmd.Flags().IntVarP(&config.Gain, "gain", "g", app.DefaultGain, "Gain setting (0 for auto)")
	rootCmd.Flags().IntVar(&config.MaxPackets, "max-packets", app.DefaultMaxPackets, "Candidate packet capacity per frame")
	rootCmd.Flags().Float64Var(&config.SyncThreshold, "sync-threshold", app.DefaultSyncThreshold, "Preamble correlation threshold over mean energy")
	rootCmd.Flags().StringVarP(&config.LogDir, "log-dir", "l", "./logs", "Log directory")
	rootCmd.Flags().BoolVarP(&config.LogRotateUTC, "utc", "u", true, "Use UTC for log rotation")
	rootCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().BoolVar(&config.ShowVersion, "version", false, "Show version information")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
