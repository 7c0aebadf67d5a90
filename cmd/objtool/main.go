// objtool is a CLI utility for inspecting and modifying OBJ models.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/procgen3d/pkg/encoding"
	"github.com/Faultbox/procgen3d/pkg/obj"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "groups", "ls":
		cmdGroups(args)
	case "validate", "check":
		cmdValidate(args)
	case "modify", "mod":
		cmdModify(args)
	case "export":
		cmdExport(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`objtool - OBJ model utility

Usage:
  objtool <command> [options]

Commands:
  info <file.obj>                          Show model statistics
  groups <file.obj>                        List groups with vertex counts
  validate <file.obj>                      Check that the model has usable geometry
  modify [-set k=v]... [-o out] <file.obj> Apply modifiers in order
  export <file.obj> <out.glb>              Convert to binary glTF

Every command accepts -charset <name> for files not written in UTF-8.

Examples:
  objtool info plant.obj
  objtool modify -set overall_size=2 -set leaf_visible=false -o small.obj plant.obj
  objtool export plant.obj plant.glb
  objtool groups -charset shift_jis kabuto.obj`)
}

func load(path, charset string) *obj.Model {
	m, err := obj.ParseFileCharset(path, charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return m
}

func printDiagnostics(m *obj.Model) {
	for _, d := range m.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", d)
	}
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	charset := fs.String("charset", "", "Source charset (default UTF-8)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objtool info [-charset name] <file.obj>")
		os.Exit(1)
	}

	m := load(fs.Arg(0), *charset)
	vertices, faces := m.EmittedCounts()

	name := m.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("Model:      %s\n", fs.Arg(0))
	fmt.Printf("Object:     %s\n", name)
	fmt.Printf("Vertices:   %d\n", len(m.Vertices))
	fmt.Printf("Normals:    %d\n", len(m.Normals))
	fmt.Printf("TexCoords:  %d\n", len(m.TexCoords))
	fmt.Printf("Faces:      %d (%d writable)\n", len(m.Faces), faces)
	fmt.Printf("Groups:     %d\n", len(m.Groups))
	if len(m.Materials) > 0 {
		fmt.Printf("Materials:  %s\n", strings.Join(m.Materials, ", "))
	}
	if vertices != len(m.Vertices) {
		fmt.Printf("Writable vertices: %d\n", vertices)
	}
	printDiagnostics(m)
}

func cmdGroups(args []string) {
	fs := flag.NewFlagSet("groups", flag.ExitOnError)
	charset := fs.String("charset", "", "Source charset (default UTF-8)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objtool groups [-charset name] <file.obj>")
		os.Exit(1)
	}

	m := load(fs.Arg(0), *charset)
	for _, g := range m.Groups {
		c, ok := m.Centroid(g.Name)
		if !ok {
			fmt.Printf("  %-16s %6d vertices\n", g.Name, len(g.Indices))
			continue
		}
		fmt.Printf("  %-16s %6d vertices  center (%.3f, %.3f, %.3f)\n", g.Name, len(g.Indices), c.X, c.Y, c.Z)
	}
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	charset := fs.String("charset", "", "Source charset (default UTF-8)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objtool validate [-charset name] <file.obj>")
		os.Exit(1)
	}

	m := load(fs.Arg(0), *charset)
	printDiagnostics(m)
	if err := m.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

// setFlags collects repeated -set name=value flags in order.
type setFlags struct {
	mods obj.Modifiers
}

func (s *setFlags) String() string {
	return strings.Join(s.mods.Names(), ",")
}

func (s *setFlags) Set(arg string) error {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("expected name=value, got %q", arg)
	}
	s.mods.Set(strings.TrimSpace(name), parseValue(strings.TrimSpace(raw)))
	return nil
}

// parseValue maps booleans and numbers to the types a JSON decode would
// produce; anything else stays a string.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func cmdModify(args []string) {
	fs := flag.NewFlagSet("modify", flag.ExitOnError)
	var sets setFlags
	fs.Var(&sets, "set", "Modifier as name=value (repeatable, applied in order)")
	output := fs.String("o", "", "Output file (default stdout)")
	charset := fs.String("charset", "", "Source charset (default UTF-8)")
	fs.Parse(args)

	if fs.NArg() < 1 || len(sets.mods) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: objtool modify -set name=value [-set ...] [-o out.obj] <file.obj>")
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	source, err := encoding.ToUTF8(data, *charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	text, m, err := obj.Modify(source, sets.mods)
	if m != nil {
		printDiagnostics(m)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *output == "" {
		fmt.Print(text)
		return
	}
	if err := os.WriteFile(*output, []byte(text), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Wrote: %s (%d bytes)\n", *output, len(text))
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	charset := fs.String("charset", "", "Source charset (default UTF-8)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: objtool export [-charset name] <file.obj> <out.glb>")
		os.Exit(1)
	}

	m := load(fs.Arg(0), *charset)
	printDiagnostics(m)

	var buf bytes.Buffer
	if err := m.ExportGLB(&buf); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(fs.Arg(1), buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported: %s (%d bytes)\n", fs.Arg(1), buf.Len())
}
