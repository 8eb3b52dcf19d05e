package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/twin64/t64sim/asm"
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/config"
	"github.com/twin64/t64sim/logging"
)

// Version information; overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to a TOML system config (default: platform config dir)")
		debug       = flag.Bool("debug", false, "Mirror log output to stderr regardless of level")
		maxSteps    = flag.Int("max-steps", 1_000_000, "Maximum instructions to execute in run mode before giving up")
	)
	flag.Usage = usage
	flag.Parse()

	log, closeLog := openLogger(*debug)
	defer closeLog()

	if *showVersion {
		fmt.Printf("t64sim %s (commit %s, built %s)\n", Version, Commit, Date)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "asm":
		err = runAssemble(args[1:])
	case "disasm":
		err = runDisassemble(args[1:])
	case "run":
		err = runProgram(log, *configPath, *maxSteps, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "t64sim:", err)
		os.Exit(1)
	}
}

// openLogger logs to t64sim.log in the platform log directory, falling
// back to stderr when the file cannot be opened. The debug flag mirrors
// file-bound records to stderr as well.
func openLogger(debug bool) (*slog.Logger, func()) {
	path := filepath.Join(config.GetLogPath(), "t64sim.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304 -- platform log dir
	if err != nil {
		return logging.New(os.Stderr, slog.LevelInfo, debug), func() {}
	}
	return logging.New(f, slog.LevelInfo, debug), func() { _ = f.Close() }
}

func usage() {
	fmt.Fprintln(os.Stderr, `t64sim: a Twin-64 system emulator

Usage:
  t64sim asm <instruction text>          assemble one line, print its hex word
  t64sim disasm <hex word>               disassemble one 32-bit word
  t64sim [-config file] run <program>    assemble and run a program file
                                          (one instruction per line; DIAG 2
                                          halts the processor)

Flags:`)
	flag.PrintDefaults()
}

// runAssemble assembles a single instruction line given as the remaining
// command-line arguments (so callers needn't quote the whole instruction).
func runAssemble(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("asm: expected an instruction, e.g. %q", "ADD R1, R2, R3")
	}
	line := strings.Join(args, " ")
	w, err := asm.Assemble(line)
	if err != nil {
		return fmt.Errorf("asm: %s: %w", line, err)
	}
	fmt.Printf("%#08x\n", w)
	return nil
}

// runDisassemble disassembles a single 32-bit word given in hex, with or
// without a 0x prefix.
func runDisassemble(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("disasm: expected exactly one instruction word")
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(args[0]), "0x"), 16, 32)
	if err != nil {
		return fmt.Errorf("disasm: %s: not a 32-bit hex word", args[0])
	}
	opcode, operands := asm.Disassemble(bitfield.Instr(v), 16)
	if operands == "" {
		fmt.Println(opcode)
	} else {
		fmt.Printf("%s %s\n", opcode, operands)
	}
	return nil
}

// runProgram assembles each non-blank, non-comment line of the named file
// into consecutive words starting at processor 0's PhysStart, resets the
// configured system, and steps it until it halts, traps uncaught, or
// maxSteps is exceeded.
func runProgram(log *slog.Logger, configPath string, maxSteps int, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("run: expected exactly one program file")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	sys, err := cfg.BuildSystem()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if len(sys.Processors) == 0 {
		return fmt.Errorf("run: config defines no processors")
	}

	words, err := assembleFile(args[0])
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	base := sys.Processors[0].CPU.PhysStart
	for i, w := range words {
		if err := sys.WriteMemory(base+bitfield.Word(i*4), 4, bitfield.Word(w)); err != nil {
			return fmt.Errorf("run: loading word %d: %w", i, err)
		}
	}

	sys.Reset()
	log.Info("program loaded", "words", len(words), "base", fmt.Sprintf("%#x", base))

	steps := 0
	for ; steps < maxSteps; steps++ {
		allHalted := true
		for _, p := range sys.Processors {
			if p.CPU.Halted {
				continue
			}
			allHalted = false
		}
		if allHalted {
			break
		}
		if err := sys.Step(1); err != nil {
			log.Error("trap", "step", steps, "error", err.Error())
			return fmt.Errorf("run: %w", err)
		}
	}

	for _, p := range sys.Processors {
		fmt.Printf("processor %d: IA=%#x halted=%v\n", p.Num, p.CPU.Regs.IA(), p.CPU.Halted)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// assembleFile assembles one instruction per non-blank line; a line whose
// first non-space character is ';' is a comment and is skipped.
func assembleFile(path string) ([]bitfield.Instr, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-supplied program path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []bitfield.Instr
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		w, err := asm.Assemble(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", lineNo, line, err)
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
