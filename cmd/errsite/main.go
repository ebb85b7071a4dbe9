// errsite rewrites annotated error definitions
// so that they record where each cause was converted.
//
// # Installation
//
// Install errsite with:
//
//	go install braces.dev/errsite/cmd/errsite@latest
//
// # Usage
//
//	errsite [options] <source files | patterns>
//
// This will rewrite source files and write them to the standard output.
//
// If instead of source files, Go package patterns are given,
// errsite will rewrite all the files that match those patterns.
// For example, 'errsite ./...' will rewrite all files in the current
// package and all subpackages.
//
// An error definition is a struct type marked with //errsite:error.
// Each field tagged `errsite:"from"` is turned into an
// *errsite.Located field, and a conversion function is generated for it:
//
//	//errsite:error
//	type LoadError struct {
//		Open *fs.PathError `errsite:"from"`
//	}
//
// becomes
//
//	//errsite:error
//	type LoadError struct {
//		Open *errsite.Located[*fs.PathError] `errsite:"from"`
//	}
//
//	func LoadErrorFromPathError(err *fs.PathError) *LoadError {
//		return &LoadError{Open: errsite.WrapCaller(errsite.GetCaller(), err)}
//	}
//
// Use the following flags to control the output:
//
//	-format
//	      whether to format output; one of: [auto, always, never].
//	      auto is the default and will format if the output is being written to a file.
//	-w    write result to the given source files instead of stdout.
//	-l    list files that would be modified without making any changes.
//	-config FILE
//	      read configuration from FILE instead of the nearest .errsite.yaml.
//
// # Toolexec
//
// errsite can also rewrite packages as they are compiled:
//
//	go build -toolexec=errsite ./...
//
// Only packages that import braces.dev/errsite are rewritten.
package main

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/imports"

	"braces.dev/errsite/internal/config"
	"braces.dev/errsite/internal/rewrite"
)

func main() {
	cmd := &mainCmd{
		Stdin:  os.Stdin,
		Stderr: os.Stderr,
		Stdout: os.Stdout,
		Getenv: os.Getenv,
	}

	if exitCode, ok := cmd.handleToolExec(os.Args[1:]); ok {
		os.Exit(exitCode)
	}
	os.Exit(cmd.Run(os.Args[1:]))
}

type mainParams struct {
	Write      bool          // -w
	List       bool          // -l
	Format     config.Format // -format
	ConfigFile string        // -config
	Patterns   []string      // list of files to process

	FormatSet     bool // whether -format was given
	ImplicitStdin bool // whether stdin was picked because there were no args
}

// newApp builds the command line parser.
// action runs after the flags have been parsed into p.
func newApp(w io.Writer, p *mainParams, action func() error) *cli.App {
	app := cli.NewApp()
	app.Name = "errsite"
	app.Usage = "record where errors cross abstraction boundaries"
	app.UsageText = "errsite [options] <source files | patterns>"
	app.HideVersion = true
	app.Writer = w
	app.ErrWriter = w
	app.Flags = []cli.Flag{
		cli.GenericFlag{
			Name: "format",
			Usage: "whether to format output; one of: [auto, always, never].\n" +
				"auto is the default and will format if the output is being written to a file.",
			Value: &p.Format,
		},
		cli.BoolFlag{
			Name:        "w",
			Usage:       "write result to the given source files instead of stdout.",
			Destination: &p.Write,
		},
		cli.BoolFlag{
			Name:        "l",
			Usage:       "list files that would be modified without making any changes.",
			Destination: &p.List,
		},
		cli.StringFlag{
			Name:        "config",
			Usage:       "read configuration from `FILE` instead of the nearest " + config.FileName,
			Destination: &p.ConfigFile,
		},
	}
	app.Action = func(c *cli.Context) error {
		p.FormatSet = c.IsSet("format")
		p.Patterns = c.Args()
		if len(p.Patterns) == 0 {
			// Read file from stdin when there's no args, similar to gofmt.
			p.Patterns = []string{"-"}
			p.ImplicitStdin = true
		}
		return action()
	}
	return app
}

type mainCmd struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	log *zap.SugaredLogger
}

// newLogger builds a logger that writes bare messages,
// so that diagnostics read like compiler output:
//
//	file.go:12:6:skipping generic error type Foo
func newLogger(w io.Writer) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core).Sugar()
}

func (cmd *mainCmd) Run(args []string) (exitCode int) {
	cmd.log = newLogger(cmd.Stderr)
	defer func() { _ = cmd.log.Sync() }()

	var p mainParams
	app := newApp(cmd.Stderr, &p, func() error {
		exitCode = cmd.run(&p)
		return nil
	})

	if err := app.Run(append([]string{"errsite"}, args...)); err != nil {
		cmd.log.Errorf("errsite: %v", err)
		return 1
	}
	return exitCode
}

func (cmd *mainCmd) run(p *mainParams) (exitCode int) {
	cfg, err := cmd.loadConfig(p.ConfigFile)
	if err != nil {
		cmd.log.Errorf("errsite: %v", err)
		return 1
	}
	if p.FormatSet {
		cfg.Format = p.Format
	}

	files, err := expandPatterns(p.Patterns)
	if err != nil {
		cmd.log.Errorf("errsite: %v", err)
		return 1
	}

	// Paths will be printed relative to CWD.
	// Paths outside it will be printed as-is.
	var workDir string
	if wd, err := os.Getwd(); err == nil {
		workDir = wd + string(filepath.Separator)
	}

	for _, file := range files {
		if file != "-" && cfg.Excluded(file) {
			continue
		}

		display := file
		if workDir != "" {
			// Not using filepath.Rel
			// because we don't want any ".."s in the path.
			display = strings.TrimPrefix(file, workDir)
		}
		if display == "-" {
			display = "stdin"
		}

		req := fileRequest{
			Format:        cfg.Format.Enabled(p.Write),
			Write:         p.Write,
			List:          p.List,
			NoInline:      cfg.NoInline,
			Filename:      display,
			Filepath:      file,
			ImplicitStdin: p.ImplicitStdin,
		}
		if err := cmd.processFile(req); err != nil {
			cmd.log.Errorf("%s:%v", display, err)
			exitCode = 1
		}
	}

	return exitCode
}

// loadConfig reads the given configuration file,
// or the nearest one if file is empty.
func (cmd *mainCmd) loadConfig(file string) (config.Config, error) {
	if file == "" {
		var ok bool
		file, ok = config.Find(".")
		if !ok {
			return config.Default(), nil
		}
	}
	return config.Load(file)
}

// expandPatterns turns the given list of patterns and files
// into a list of paths to files.
//
// Arguments that are already files are returned as-is.
// Arguments that are patterns are expanded with go/packages.
// As a special case for stdin, "-" is returned as-is.
func expandPatterns(args []string) ([]string, error) {
	var files, patterns []string
	for _, arg := range args {
		if arg == "-" {
			files = append(files, arg)
			continue
		}

		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			files = append(files, arg)
			continue
		}

		patterns = append(patterns, arg)
	}

	if len(patterns) > 0 {
		pkgFiles, err := packageFiles(patterns)
		if err != nil {
			return nil, errors.Wrap(err, "load packages")
		}

		files = append(files, pkgFiles...)
	}

	return files, nil
}

// packageFiles lists the Go files of the packages matching patterns,
// including test files and files excluded by build constraints.
func packageFiles(patterns []string) ([]string, error) {
	pkgs, err := packages.Load(&packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles,
		Tests: true,
	}, patterns...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var files []string
	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		// The generated test main lives in the build cache.
		if strings.HasSuffix(pkg.ID, ".test") {
			continue
		}

		for _, pkgFiles := range [][]string{pkg.GoFiles, pkg.IgnoredFiles} {
			for _, f := range pkgFiles {
				if !strings.HasSuffix(f, ".go") {
					continue
				}
				if _, ok := seen[f]; ok {
					continue
				}
				seen[f] = struct{}{}
				files = append(files, f)
			}
		}
	}
	return files, nil
}

type fileRequest struct {
	Format   bool
	Write    bool
	List     bool
	NoInline bool

	Filename string // name displayed to the user
	Filepath string // actual location on disk, or "-" for stdin

	ImplicitStdin bool
}

// processFile processes a single file.
// This operates in two phases:
//
// First, it finds the error definitions and plans the edits,
// then the edits are spliced into the original source.
func (cmd *mainCmd) processFile(r fileRequest) error {
	src, err := cmd.readFile(r)
	if err != nil {
		return err
	}

	f, err := rewrite.ParseFile(token.NewFileSet(), r.Filename, src)
	if err != nil {
		return err
	}

	plan := rewrite.Analyze(f, rewrite.Options{NoInline: r.NoInline})
	for _, w := range plan.Warnings {
		cmd.log.Warnf("%v:%s", f.Fset.Position(w.Pos), w.Msg)
	}

	if r.List {
		if plan.NeedsRewrite() {
			_, err = fmt.Fprintf(cmd.Stdout, "%s\n", r.Filename)
		}
		return errors.WithStack(err)
	}

	out := plan.Bytes()
	if r.Format {
		out, err = imports.Process(r.Filename, out, &imports.Options{
			Comments:   true,
			TabIndent:  true,
			TabWidth:   8,
			FormatOnly: true,
		})
		if err != nil {
			return errors.Wrap(err, "format")
		}
	}

	if r.Write {
		if !plan.NeedsRewrite() && !r.Format {
			return nil
		}
		err = os.WriteFile(r.Filepath, out, 0o644)
	} else {
		_, err = cmd.Stdout.Write(out)
	}
	return errors.WithStack(err)
}

func (cmd *mainCmd) readFile(r fileRequest) ([]byte, error) {
	if r.Filepath != "-" {
		src, err := os.ReadFile(r.Filepath)
		return src, errors.WithStack(err)
	}

	if r.Write {
		return nil, errors.New("can't use -w with stdin")
	}

	if r.ImplicitStdin {
		// Running with no args reads from stdin, but this is not obvious
		// so print a usage hint to stderr, if we think stdin is a TTY.
		// Best-effort check for a TTY by looking for a character device.
		type statter interface {
			Stat() (os.FileInfo, error)
		}
		if st, ok := cmd.Stdin.(statter); ok {
			if fi, err := st.Stat(); err == nil &&
				fi.Mode()&os.ModeCharDevice == os.ModeCharDevice {
				cmd.log.Info("reading from stdin; use '-h' for help")
			}
		}
	}

	src, err := io.ReadAll(cmd.Stdin)
	return src, errors.Wrap(err, "read stdin")
}
