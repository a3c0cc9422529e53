package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/birdseye/internal/config"
	"github.com/sadopc/birdseye/internal/engine"
	"github.com/sadopc/birdseye/internal/logging"
	"github.com/sadopc/birdseye/internal/ops"
	"github.com/sadopc/birdseye/internal/remote"
	"github.com/sadopc/birdseye/internal/scanner"
	"github.com/sadopc/birdseye/internal/ui"
)

const defaultExportPath = "birdseye-export.json"

// cliOptions holds the raw flag values. Config values are only replaced by
// flags the user actually set.
type cliOptions struct {
	configPath     string
	logLevel       string
	logFile        string
	importPath     string
	preset         string
	allowDelete    bool
	showHidden     bool
	followSymlinks bool
	exclude        []string
	concurrency    int
	sshPort        int
	sshBatch       bool
	sshTimeout     int
	sshScanTimeout int
	filters        []string
}

func newRootCmd() *cobra.Command {
	o := &cliOptions{}
	root := &cobra.Command{
		Use:   "birdseye [path|user@host [remote-path]]",
		Short: "Interactive disk usage explorer",
		Long: `birdseye scans a directory tree in the background and ranks the largest
files, directories and file types while the scan is still running.

Targets may be a local directory, an archive, or user@host for a scan
over SFTP.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, o, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "config file path (default $XDG_CONFIG_HOME/birdseye/config.yaml)")
	pf.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&o.logFile, "log-file", "", "append logs to this file")
	pf.StringVar(&o.importPath, "import", "", "replay a JSON export instead of reading the filesystem")
	pf.StringVar(&o.preset, "preset", "", "scan a preset location (home, downloads, videos, cache, temp)")
	pf.BoolVar(&o.showHidden, "hidden", true, "include hidden files")
	pf.BoolVar(&o.followSymlinks, "follow-symlinks", false, "follow symbolic links during scan")
	pf.StringSliceVar(&o.exclude, "exclude", nil, "comma-separated entry names to skip")
	pf.IntVarP(&o.concurrency, "jobs", "j", 0, "max concurrent directory reads (0 = auto: 3x CPU cores)")
	pf.IntVar(&o.sshPort, "ssh-port", 22, "SSH port for remote scans")
	pf.BoolVar(&o.sshBatch, "ssh-batch", false, "disable SSH prompts (key/agent auth only)")
	pf.IntVar(&o.sshTimeout, "ssh-timeout", 15, "SSH connection timeout in seconds")
	pf.IntVar(&o.sshScanTimeout, "ssh-scan-timeout", 0, "SSH scan timeout in seconds (0 = no limit)")
	pf.StringArrayVar(&o.filters, "filter", nil, "filter spec such as min-size=5 or max-results=10 (repeatable)")
	root.Flags().BoolVar(&o.allowDelete, "allow-delete", false, "allow deleting entries from the UI")

	root.AddCommand(newScanCmd(o), newExportCmd(o), newConfigCmd(o), newVersionCmd())
	return root
}

func (o *cliOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultPath()
}

// loadConfig reads the config file and applies explicitly set flags.
func (o *cliOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("hidden") {
		cfg.ShowHidden = o.showHidden
	}
	if flags.Changed("follow-symlinks") {
		cfg.FollowSymlinks = o.followSymlinks
	}
	if flags.Changed("exclude") {
		cfg.Exclude = o.exclude
	}
	if flags.Changed("jobs") {
		cfg.Concurrency = o.concurrency
	}
	if flags.Changed("filter") {
		cfg.Filters = o.filters
	}
	if flags.Changed("allow-delete") {
		cfg.AllowDelete = o.allowDelete
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if flags.Changed("ssh-port") {
		cfg.SSH.Port = o.sshPort
	}
	if flags.Changed("ssh-batch") {
		cfg.SSH.Batch = o.sshBatch
	}
	if flags.Changed("ssh-timeout") {
		cfg.SSH.TimeoutSeconds = o.sshTimeout
	}
	if flags.Changed("ssh-scan-timeout") {
		cfg.SSH.ScanTimeoutSeconds = o.sshScanTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// source is where a scan reads from.
type source struct {
	root    string
	enum    scanner.Enumerator // nil picks by root kind
	deleter engine.Deleter
	closer  io.Closer
}

func (o *cliOptions) openSource(ctx context.Context, cfg *config.Config, args []string, log *logging.Logger) (*source, error) {
	if o.importPath != "" {
		if len(args) > 0 || o.preset != "" {
			return nil, errors.New("--import cannot be used with scan targets")
		}
		root, err := ops.ImportRoot(o.importPath)
		if err != nil {
			return nil, fmt.Errorf("importing: %w", err)
		}
		return &source{root: root, enum: ops.ImportEnumerator{File: o.importPath}}, nil
	}

	if o.preset != "" {
		if len(args) > 0 {
			return nil, errors.New("--preset cannot be used with scan targets")
		}
		dir, err := presetPath(o.preset)
		if err != nil {
			return nil, err
		}
		args = []string{dir}
	}

	target, err := resolveScanTarget(args)
	if err != nil {
		return nil, err
	}

	if target.Remote {
		enum := remote.NewSFTPEnumerator(remote.Config{
			Target:      target.SSHDestination,
			Port:        cfg.SSH.Port,
			BatchMode:   cfg.SSH.Batch,
			Timeout:     cfg.SSH.Timeout(),
			ScanTimeout: cfg.SSH.ScanTimeout(),
		}, cfg.ScanOptions(), log)
		root, err := enum.Resolve(ctx, target.RemotePath)
		if err != nil {
			enum.Close()
			return nil, err
		}
		return &source{root: root, enum: enum, closer: enum}, nil
	}

	abs, err := filepath.Abs(target.LocalPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() && !scanner.IsArchive(abs) {
		return nil, fmt.Errorf("%s is neither a directory nor a supported archive", abs)
	}
	src := &source{root: abs}
	if info.IsDir() {
		src.deleter = ops.Remover{}
	}
	return src, nil
}

// env is everything one command run needs.
type env struct {
	cfg *config.Config
	log *logging.Logger
	src *source
}

// newEnv loads settings, opens the logger and resolves the scan source.
// Without a log file, logs go to logOut, or nowhere when logOut is nil.
func newEnv(cmd *cobra.Command, o *cliOptions, args []string, logOut io.Writer) (*env, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := openLogger(cmd, cfg, logOut)
	if err != nil {
		return nil, err
	}
	src, err := o.openSource(cmd.Context(), cfg, args, log)
	if err != nil {
		log.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, src: src}, nil
}

func (e *env) session() *engine.Session {
	orch := &scanner.Orchestrator{
		Enumerator: e.src.enum,
		Options:    e.cfg.ScanOptions(),
		Logger:     e.log,
	}
	return engine.NewSession(orch, e.src.deleter, e.log)
}

func (e *env) Close() {
	if e.src.closer != nil {
		e.src.closer.Close()
	}
	e.log.Close()
}

func openLogger(cmd *cobra.Command, cfg *config.Config, fallback io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogFile != "" {
		return logging.Open(cfg.LogFile, level)
	}
	if fallback == nil {
		return logging.Nop(), nil
	}
	// Terminal output stays quiet unless a level was asked for.
	if !cmd.Flags().Changed("log-level") {
		level = max(level, logging.LevelWarn)
	}
	return logging.New(fallback, level), nil
}

func runInteractive(cmd *cobra.Command, o *cliOptions, args []string) error {
	e, err := newEnv(cmd, o, args, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	consumer := engine.NewConsumer(cmd.Context(), e.session())
	defer consumer.Close()

	app := ui.NewApp(consumer, ui.Options{
		Root:        e.src.root,
		MaxFiles:    e.cfg.MaxFiles,
		MaxDirs:     e.cfg.MaxDirs,
		MaxTypes:    e.cfg.MaxTypes,
		Filters:     e.cfg.FilterChain(),
		AllowDelete: e.cfg.AllowDelete,
		ExportPath:  defaultExportPath,
		Version:     version,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return app.FatalError()
}

func newConfigCmd(o *cliOptions) *cobra.Command {
	var initFile bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the config file location, or create it with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := o.resolveConfigPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", path)

			_, statErr := os.Stat(path)
			exists := statErr == nil
			if initFile {
				if exists {
					return fmt.Errorf("config file %s already exists", path)
				}
				if err := config.Save(config.Default(), path); err != nil {
					return err
				}
				fmt.Fprintln(out, "Wrote default configuration.")
				return nil
			}
			if !exists {
				fmt.Fprintln(out, "Config file does not exist. Using default configuration.")
				fmt.Fprintln(out, "Run 'birdseye config --init' to create it.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&initFile, "init", false, "write the default configuration if the file does not exist")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "birdseye %s\n", version)
		},
	}
}
