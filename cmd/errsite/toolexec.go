package main

import (
	"bytes"
	"fmt"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"braces.dev/errsite/internal/config"
	"braces.dev/errsite/internal/rewrite"
)

// _rewriteVersion is appended to the compiler's version
// so that the build cache is invalidated when generated code changes.
const _rewriteVersion = 1

func (cmd *mainCmd) handleToolExec(args []string) (exitCode int, handled bool) {
	// In toolexec mode, we're passed the original command + arguments.
	if len(args) == 0 {
		return -1, false
	}

	if cmd.log == nil {
		cmd.log = newLogger(cmd.Stderr)
	}

	for _, arg := range args {
		if arg == "-V=full" {
			// compile is run first with "-V=full" to get a version number
			// for caching build IDs.
			// No TOOLEXEC_IMPORTPATH is set in this case.
			return cmd.toolExecVersion(args), true
		}
	}

	if cmd.Getenv == nil {
		cmd.Getenv = os.Getenv
	}
	// When "-toolexec" is used, the go cmd sets the package being compiled in the env.
	if pkg := cmd.Getenv("TOOLEXEC_IMPORTPATH"); pkg != "" {
		return cmd.toolExecRewrite(pkg, args), true
	}

	return -1, false
}

func (cmd *mainCmd) toolExecVersion(args []string) int {
	tool := exec.Command(args[0], args[1:]...)
	var stdout bytes.Buffer
	tool.Stdout = &stdout
	tool.Stderr = cmd.Stderr
	if err := tool.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}

		cmd.log.Errorf("%v failed: %v", args[0], err)
		return 1
	}

	fmt.Fprintf(cmd.Stdout, "%s-errsite%d\n", strings.TrimSpace(stdout.String()), _rewriteVersion)
	return 0
}

func (cmd *mainCmd) toolExecRewrite(pkg string, args []string) (exitCode int) {
	// We only need to modify the arguments for "compile" calls which work with .go files.
	if !isCompile(args[0]) {
		return cmd.runOriginal(args)
	}

	// We only modify packages that import errsite, so stdlib is never eligible.
	// To avoid unnecessary parsing, use a heuristic to detect stdlib packages:
	// whether the name contains ".".
	if !strings.Contains(pkg, ".") {
		return cmd.runOriginal(args)
	}

	exitCode, err := cmd.rewriteCompile(pkg, args)
	if err != nil {
		cmd.log.Errorf("errsite: %v: %+v", pkg, err)
		return 1
	}

	return exitCode
}

// compilePlan holds the rewrite plans for the Go files of a compile call.
type compilePlan struct {
	Fset  *token.FileSet
	Plans map[string]*rewrite.Plan // by file argument

	OptIn       bool // whether a file imports errsite
	NeedRewrite bool // whether a file needs edits
}

// planCompile analyzes the Go files passed to the compiler.
// Files excluded by the package's configuration are left out.
func planCompile(args []string) (*compilePlan, error) {
	cfg, err := packageConfig(args)
	if err != nil {
		return nil, err
	}
	opts := rewrite.Options{NoInline: cfg.NoInline}

	cp := &compilePlan{
		Fset:  token.NewFileSet(),
		Plans: make(map[string]*rewrite.Plan),
	}
	for _, arg := range args {
		if !isGoFile(arg) {
			continue
		}
		if abs, err := filepath.Abs(arg); err == nil && cfg.Excluded(abs) {
			continue
		}

		contents, err := os.ReadFile(arg)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		f, err := rewrite.ParseFile(cp.Fset, arg, contents)
		if err != nil {
			return nil, errors.Wrap(err, arg)
		}

		plan := rewrite.Analyze(f, opts)
		cp.Plans[arg] = plan
		if plan.OptIn {
			cp.OptIn = true
		}
		if plan.NeedsRewrite() {
			cp.NeedRewrite = true
		}
	}
	return cp, nil
}

// packageConfig loads the configuration that applies
// to the directory of the first Go file in args.
func packageConfig(args []string) (config.Config, error) {
	for _, arg := range args {
		if !isGoFile(arg) {
			continue
		}

		file, ok := config.Find(filepath.Dir(arg))
		if !ok {
			break
		}
		return config.Load(file)
	}
	return config.Default(), nil
}

func (cmd *mainCmd) rewriteCompile(pkg string, args []string) (exitCode int, _ error) {
	cp, err := planCompile(args)
	if err != nil {
		return -1, err
	}

	if !cp.OptIn || !cp.NeedRewrite {
		return cmd.runOriginal(args), nil
	}

	for _, arg := range args {
		plan, ok := cp.Plans[arg]
		if !ok {
			continue
		}
		for _, w := range plan.Warnings {
			cmd.log.Warnf("%v:%s", cp.Fset.Position(w.Pos), w.Msg)
		}
	}

	// Use a temporary directory per-package that is rewritten.
	tempDir, err := os.MkdirTemp("", filepath.Base(pkg))
	if err != nil {
		return -1, errors.WithStack(err)
	}
	defer os.RemoveAll(tempDir) //nolint:errcheck // best-effort removal of temp files.

	newArgs := make([]string, 0, len(args))
	for _, arg := range args {
		plan, ok := cp.Plans[arg]
		if !ok || !plan.NeedsRewrite() {
			newArgs = append(newArgs, arg)
			continue
		}

		// Add a //line directive so the original filepath is used in errors and panics.
		var out bytes.Buffer
		_, _ = fmt.Fprintf(&out, "//line %v:1\n", arg)

		if err := plan.Apply(&out); err != nil {
			return -1, errors.WithStack(err)
		}

		newFile := filepath.Join(tempDir, filepath.Base(arg))
		if err := os.WriteFile(newFile, out.Bytes(), 0o666); err != nil {
			return -1, errors.WithStack(err)
		}

		newArgs = append(newArgs, newFile)
	}

	return cmd.runOriginal(newArgs), nil
}

func isCompile(arg string) bool {
	if runtime.GOOS == "windows" {
		arg = strings.TrimSuffix(arg, ".exe")
	}
	return strings.HasSuffix(arg, "compile")
}

func isGoFile(arg string) bool {
	return strings.HasSuffix(arg, ".go")
}

func (cmd *mainCmd) runOriginal(args []string) (exitCode int) {
	tool := exec.Command(args[0], args[1:]...)
	tool.Stdin = cmd.Stdin
	tool.Stdout = cmd.Stdout
	tool.Stderr = cmd.Stderr

	if err := tool.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		cmd.log.Errorf("tool failed: %v", err)
		return 1
	}

	return 0
}
