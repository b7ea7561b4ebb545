// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

//go:build !js
// +build !js

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/ozanh/ulua"
	"github.com/ozanh/ulua/internal/config"
)

const promptPrefix2 = "... "

var log = commonlog.GetLogger("ulua")

// Sentinel errors for repl.
var (
	errExit  = errors.New("exit")
	errReset = errors.New("reset")
)

type suggest struct {
	text        string
	description string
	typ         string
}

var commandSuggestions = []suggest{
	{text: ".commands", description: "Print REPL commands"},
	{text: ".builtins", description: "Print Builtins"},
	{text: ".bytecode", description: "Print Bytecode"},
	{text: ".globals", description: "Print Globals"},
	{text: ".memory_stats", description: "Print Memory Stats"},
	{text: ".gc", description: "Run Garbage Collector"},
	{text: ".reset", description: "Reset"},
	{text: ".exit", description: "Exit"},
}

type repl struct {
	vm          *ulua.VM
	cfg         *config.Config
	out         io.Writer
	commands    map[string]func(string) error
	script      *bytes.Buffer
	lastProgram *ulua.Program
	suggestions []suggest
	isMultiline bool
}

func newREPL(cfg *config.Config, stdout io.Writer) *repl {
	if stdout == nil {
		stdout = os.Stdout
	}

	r := &repl{
		vm:     ulua.NewVM().SetOutput(stdout).SetRecover(true),
		cfg:    cfg,
		out:    stdout,
		script: bytes.NewBuffer(nil),
	}
	r.setSuggestions()

	r.commands = map[string]func(string) error{
		".commands":     r.cmdCommands,
		".builtins":     r.cmdBuiltins,
		".bytecode":     r.cmdBytecode,
		".globals":      r.cmdGlobals,
		".memory_stats": r.cmdMemoryStats,
		".gc":           r.cmdGC,
		".reset":        func(string) error { return errReset },
		".exit":         func(string) error { return errExit },
	}
	return r
}

func (r *repl) cmdCommands(_ string) error {
	r.printSuggestions(func(s suggest) bool { return s.typ == "" })
	return nil
}

func (r *repl) cmdBuiltins(_ string) error {
	r.printSuggestions(func(s suggest) bool { return s.typ == "builtin" })
	return nil
}

func (r *repl) printSuggestions(filter func(suggest) bool) {
	var suggs []suggest
	var maxtext int
	for _, v := range r.suggestions {
		if !filter(v) {
			continue
		}
		suggs = append(suggs, v)
		if maxtext < len(v.text) {
			maxtext = len(v.text)
		}
	}
	for _, s := range suggs {
		_, _ = fmt.Fprint(r.out, s.text)
		if s.description != "" {
			_, _ = fmt.Fprintf(r.out, "%s\t%s",
				strings.Repeat(" ", maxtext-len(s.text)), s.description)
		}
		_, _ = fmt.Fprintln(r.out)
	}
}

func (r *repl) cmdBytecode(_ string) error {
	if r.lastProgram == nil {
		_, _ = fmt.Fprintln(r.out, "<nil>")
		return nil
	}
	r.lastProgram.Fprint(r.out)
	return nil
}

func (r *repl) cmdGlobals(_ string) error {
	globals := r.vm.Globals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := globals[name]
		_, _ = fmt.Fprintf(r.out, "%s = %s (%s)\n", name, v, v.TypeName())
	}
	return nil
}

func (*repl) cmdGC(_ string) error {
	runtime.GC()
	return nil
}

func (r *repl) cmdMemoryStats(_ string) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	_, _ = fmt.Fprintf(r.out, "Go Memory Stats see: "+
		"https://golang.org/pkg/runtime/#MemStats\n\n")
	_, _ = fmt.Fprintf(r.out, "HeapAlloc = %s", humanize.Bytes(m.HeapAlloc))
	_, _ = fmt.Fprintf(r.out, "\tHeapObjects = %v", m.HeapObjects)
	_, _ = fmt.Fprintf(r.out, "\tSys = %s", humanize.Bytes(m.Sys))
	_, _ = fmt.Fprintf(r.out, "\tNumGC = %v\n", m.NumGC)
	return nil
}

func (r *repl) execute(line string) error {
	switch {
	case !r.isMultiline && line == "":
		return nil
	case !r.isMultiline && line[0] == '.':
		cmd := strings.Fields(line)[0]
		if fn, ok := r.commands[cmd]; ok {
			return fn(line)
		}
	case strings.HasSuffix(line, "\\"):
		r.isMultiline = true
		r.script.WriteString(line[:len(line)-1])
		r.script.WriteString("\n")
		return nil
	}

	r.script.WriteString(line)
	r.executeScript()

	r.isMultiline = false
	r.script.Reset()
	return nil
}

func (r *repl) executeScript() {
	opts := compilerOptions(r.cfg, "(repl)", r.out)
	p, err := ulua.Compile(r.script, opts)
	if err == nil {
		r.lastProgram = p
		if r.cfg.TraceEnabled(config.TraceBytecode) {
			p.Fprint(r.out)
		}
		err = r.vm.Execute(p)
	}
	if err != nil {
		_, _ = fmt.Fprintf(r.out, "\n!   %+v\n", err)
	}
}

func (r *repl) setSuggestions() {
	r.suggestions = append(r.suggestions[:0], commandSuggestions...)

	globals := r.vm.Globals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.suggestions = append(r.suggestions, suggest{
			text:        name,
			description: "Builtin " + globals[name].TypeName(),
			typ:         "builtin",
		})
	}
}

func (r *repl) complete(line string) (completions []string) {
	var contains []string
	for _, v := range r.suggestions {
		if strings.HasPrefix(v.text, line) {
			completions = append(completions, v.text)
		} else if strings.Contains(v.text, line) {
			contains = append(contains, v.text)
		}
	}
	completions = append(completions, contains...)
	return
}

func (r *repl) prefix() string {
	if r.isMultiline {
		return promptPrefix2
	}
	return r.cfg.REPL.Prompt
}

func (r *repl) printInfo() {
	_, _ = fmt.Fprintln(r.out, "Copyright (c) 2020-2023 Ozan Hacıbekiroğlu")
	_, _ = fmt.Fprintln(r.out, "https://github.com/ozanh/ulua License: MIT",
		"Build:", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintln(r.out, "Write .commands to list available commands")
	_, _ = fmt.Fprintln(r.out, "Press Ctrl+D or write .exit command to exit")
	_, _ = fmt.Fprintln(r.out)
}

func (r *repl) run() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetMultiLineMode(true)
	line.SetCompleter(r.complete)
	if err := r.readHistory(line); err != nil {
		return &ulua.Error{Message: "failed history read", Cause: err}
	}
	defer r.writeHistory(line)
	r.printInfo()

	var err error
	var str string

	for err == nil {
		str, err = line.Prompt(r.prefix())
		if err != nil {
			if err == io.EOF || err == liner.ErrPromptAborted {
				err = nil
				break
			}
			err = &ulua.Error{Message: "prompt error", Cause: err}
			break
		}
		err = r.execute(str)
		if err == nil && !r.isMultiline {
			if v := strings.TrimSpace(str); len(v) > 0 {
				line.AppendHistory(v)
			}
		}
	}
	return err
}

func (r *repl) readHistory(line *liner.State) error {
	if r.cfg.REPL.History == "" {
		_, err := line.ReadHistory(strings.NewReader("print \"hello\"\n"))
		return err
	}
	f, err := os.Open(r.cfg.REPL.History)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = line.ReadHistory(f)
	return err
}

func (r *repl) writeHistory(line *liner.State) {
	if r.cfg.REPL.History == "" {
		return
	}
	f, err := os.Create(r.cfg.REPL.History)
	if err != nil {
		log.Errorf("cannot write history: %s", err)
		return
	}
	defer f.Close()
	if _, err = line.WriteHistory(f); err != nil {
		log.Errorf("cannot write history: %s", err)
	}
}

func compilerOptions(
	cfg *config.Config,
	modulePath string,
	traceOut io.Writer,
) ulua.CompilerOptions {
	opts := ulua.DefaultCompilerOptions
	opts.ModulePath = modulePath
	opts.TraceParser = cfg.TraceEnabled(config.TraceParser)
	opts.TraceCompiler = cfg.TraceEnabled(config.TraceCompiler)
	if opts.TraceParser || opts.TraceCompiler {
		opts.Trace = traceOut
	}
	return opts
}

func parseFlags(
	flagset *flag.FlagSet,
	args []string,
) (filePath string, cfg *config.Config, err error) {

	var (
		trace      string
		configPath string
		verbosity  int
	)
	flagset.StringVar(&trace, "trace", "",
		`Comma separated units: -trace parser,compiler,bytecode`)
	flagset.StringVar(&configPath, "config", "",
		"Configuration file (.toml, .yaml or .yml). "+
			"Defaults to ulua.toml or ulua.yaml in the working directory")
	flagset.IntVar(&verbosity, "v", 0, "Log verbosity (-4 to 2)")

	flagset.Usage = func() {
		_, _ = fmt.Fprint(flagset.Output(),
			"Usage: ulua [flags] [script file]\n\n",
			"If script file is not provided, REPL terminal application is started\n",
			"Use - to read from stdin\n\n",
			"\nFlags:\n",
		)
		flagset.PrintDefaults()
	}

	if err = flagset.Parse(args); err != nil {
		return
	}

	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return
	}

	flagset.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "trace":
			err = cfg.SetTrace(trace)
		case "v":
			cfg.Log.Verbosity = verbosity
			err = cfg.Validate()
		}
	})
	if err != nil {
		return
	}

	if flagset.NArg() != 1 {
		return
	}

	filePath = flagset.Arg(0)
	if filePath == "-" {
		return
	}
	_, err = os.Stat(filePath)
	return
}

func configureLog(cfg *config.Config) {
	var path *string
	if cfg.Log.File != "" {
		path = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, path)
	if cfg.Path != "" {
		log.Infof("config loaded from %s", cfg.Path)
	}
}

func executeScript(
	cfg *config.Config,
	modulePath string,
	script io.Reader,
	out io.Writer,
	traceOut io.Writer,
) error {
	p, err := ulua.Compile(script, compilerOptions(cfg, modulePath, traceOut))
	if err != nil {
		return err
	}
	log.Infof("compiled %s: %d instructions, %d constants",
		modulePath, p.NumInstructions(), len(p.Constants))

	if cfg.TraceEnabled(config.TraceBytecode) {
		p.Fprint(traceOut)
	}

	err = ulua.NewVM().SetOutput(out).SetRecover(true).Execute(p)
	if err != nil {
		return err
	}
	log.Debugf("executed %s", modulePath)
	return nil
}

func hasInputRedirection() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeNamedPipe == os.ModeNamedPipe ||
		info.Size() > 0
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	filePath, cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	checkErr(err)
	configureLog(cfg)

	if filePath == "" && hasInputRedirection() {
		filePath = "-"
	}

	if filePath != "" {
		var (
			modulePath = filePath
			script     io.Reader
		)
		if filePath == "-" {
			modulePath = "(stdin)"
			script = os.Stdin
		} else {
			f, err := os.Open(filePath)
			checkErr(err)
			defer f.Close()
			script = f
		}
		err = executeScript(cfg, modulePath, script, os.Stdout, os.Stdout)
		checkErr(err)
		return
	}

	if !isTerminal(os.Stdout) {
		_, _ = fmt.Fprintln(os.Stderr, "not a terminal")
		os.Exit(1)
	}

L:
	for {
		err = newREPL(cfg, os.Stdout).run()
		if err != nil {
			switch err {
			case errReset:
				continue
			case errExit:
				break L
			}
			checkErr(err)
		}
		break
	}
}

func checkErr(err error) {
	if err == nil {
		return
	}

	defer os.Exit(1)
	_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
}
