package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/QEStudios/PCMToMidi/decoder"
	"github.com/QEStudios/PCMToMidi/smf"
	"github.com/QEStudios/PCMToMidi/sonify"
	"github.com/davecgh/go-spew/spew"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var configPath, outputPath string
	var quiet, verbose bool
	pflag.StringVarP(&configPath, "config", "c", "", "YAML file overriding pitch, programs, pans and tempo")
	pflag.StringVarP(&outputPath, "output", "o", "", "output path (default <input>.PCM.mid)")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "don't draw the progress bar")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "print stream details and a per-track summary")
	pflag.Parse()

	cfg := sonify.DefaultConfig()
	if configPath != "" {
		cfg, err = loadConfig(configPath)
		if err != nil {
			logger.Fatalf("config error: %v", err)
		}
	}

	// Get the path of the audio file.
	path, err := choosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}
	if outputPath == "" {
		outputPath = path + ".PCM.mid"
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Fatalf("error opening file: %v", err)
	}
	defer file.Close()

	dec := decoder.NewDecoder(file, decoder.FormatFromPath(path), logger)
	pcm, err := dec.Decode()
	if err != nil {
		logger.Fatalf("decode error: %v", err)
	}
	if verbose {
		logger.Printf("Stream info:\n%s", spew.Sdump(dec.Info()))
	}

	var observer sonify.ProgressObserver
	var bar *progressBar
	if !quiet {
		bar = newProgressBar(os.Stdout, 40)
		observer = bar
	}

	w := smf.NewWriter()
	noteCount, err := sonify.NewMapper(cfg, logger, observer).Map(w, pcm.Channels, pcm.SampleRate)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		logger.Fatalf("mapping error: %v", err)
	}

	if verbose {
		fmt.Print(w.Summary(sonify.VoiceNames(len(pcm.Channels))))
	}

	if err := w.Save(outputPath); err != nil {
		logger.Fatalf("Error writing output file: %v", err)
	}
	logger.Printf("Wrote %s", outputPath)
	fmt.Printf("Note count: %d\n", noteCount)
}

func loadConfig(path string) (sonify.Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return sonify.Config{}, fmt.Errorf("cannot expand path: %w", err)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return sonify.Config{}, err
	}
	defer f.Close()
	return sonify.LoadConfig(f)
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		path, err := homedir.Expand(args[0])
		if err != nil {
			return "", fmt.Errorf("cannot expand path: %w", err)
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open audio file").
		Filter("Audio files (*.wav, *.mp3)", "wav", "wave", "mp3").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}

	// Check for empty path just in case.
	if absPath == "" {
		return "", dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath performs simple checks to verify if a file exists or not.
func validatePath(p string) error {
	ext := strings.ToLower(filepath.Ext(p))
	if !slices.Contains(decoder.Extensions, ext) {
		return fmt.Errorf("file must have one of the extensions %s", strings.Join(decoder.Extensions, ", "))
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", p)
	}
	return nil
}
