package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cardbox/cardbox/internal/audio"
	"github.com/cardbox/cardbox/internal/config"
	"github.com/cardbox/cardbox/internal/controller"
	"github.com/cardbox/cardbox/internal/mapping"
	"github.com/cardbox/cardbox/internal/sensor"
	"github.com/cardbox/cardbox/internal/session"
)

func main() {
	logger := log.New(os.Stdout, "cardbox ", log.LstdFlags|log.Lmsgprefix)

	var (
		flagDir     string
		flagMapping string
	)

	cmd := &cobra.Command{
		Use:           "cardbox",
		Short:         "Play audio files selected by RFID cards",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flagDir, flagMapping, logger)
		},
	}
	cmd.Flags().StringVarP(&flagDir, "directory", "d", "", "directory where audio files are present")
	cmd.Flags().StringVarP(&flagMapping, "mapping", "m", "", "card mapping file")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("%v", err)
	}
	logger.Println("shutdown complete")
}

func run(ctx context.Context, flagDir, flagMapping string, logger *log.Logger) error {
	musicDir, err := config.ResolveMusicDir(flagDir)
	if err != nil {
		return err
	}

	mappingFile, err := config.ResolveMappingFile(flagMapping)
	if err != nil {
		return err
	}

	sensorSettings, err := config.ResolveSensorSettings()
	if err != nil {
		return err
	}

	reader, err := sensor.NewMFRC522(sensor.Config{
		SPIDevice: sensorSettings.SPIDevice,
		ResetPin:  sensorSettings.ResetPin,
		IRQPin:    sensorSettings.IRQPin,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Printf("error closing card reader: %v", err)
		}
	}()

	output := audio.NewOutput()
	if err := output.Init(); err != nil {
		return err
	}
	defer output.Close()

	store, err := mapping.Load(mappingFile, musicDir, config.ReloadDebounce(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("error closing mapping store: %v", err)
		}
	}()

	sess := session.New(func(path string) (session.Handle, error) {
		handle, err := output.Open(path)
		if err != nil {
			return nil, err
		}
		return handle, nil
	})

	ctrl := controller.New(reader, store, sess, config.PollInterval(), config.AllowedExtensions(), logger)

	logger.Printf("cardbox started (music directory: %s, mapping: %s)", musicDir, mappingFile)
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Println("signal received, stopping")
	return nil
}
