// Command shapectl is a small harness for exercising the shaping engine
// against a hand-authored pass descriptor: encode it, run it over an input
// string, and print the resulting slot stream.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/peterh/liner"
	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"

	"github.com/inkstone/shaper"
	"github.com/inkstone/shaper/internal/passbuild"
)

const historyFile = ".shapectl_history"

type args struct {
	descriptorPath *string
	text           *string
	direction      *string
	interactive    *bool
	trace          *string
}

func readArgs() *args {
	a := &args{
		descriptorPath: pflag.StringP("descriptor", "d", "", "path to a hujson pass descriptor"),
		text:           pflag.StringP("text", "t", "", "input text to shape (ignored with --interactive)"),
		direction:      pflag.String("direction", "ltr", "shaping direction: ltr or rtl"),
		interactive:    pflag.BoolP("interactive", "i", false, "drop into a REPL reading input lines"),
		trace:          pflag.String("trace", "", "write a JSON trace of the shaping run to this path"),
	}
	pflag.Parse()
	return a
}

func main() {
	a := readArgs()
	if *a.descriptorPath == "" {
		log.Fatal("--descriptor is required")
	}

	passes, cmap, err := loadDescriptor(*a.descriptorPath)
	if err != nil {
		log.Fatalf("loading descriptor: %v", err)
	}

	dir := shaper.DirLTR
	if *a.direction == "rtl" {
		dir = shaper.DirRTL
	}

	cfg := shaper.DefaultConfig()
	var sink *shaper.JSONFileSink
	if *a.trace != "" {
		sink = shaper.NewJSONFileSink(*a.trace)
		cfg.TraceSink = sink
	}

	sh := &shapeRunner{passes: passes, cmap: cmap, dir: dir, cfg: cfg}

	if *a.interactive {
		runREPL(sh)
	} else {
		printResult(sh.shape(*a.text))
	}

	if sink != nil {
		if err := sink.Flush(); err != nil {
			log.Printf("writing trace: %v", err)
		}
	}
}

// descriptorFile is the hujson document shape shapectl reads: a set of
// passes (in passbuild's structured form) plus a trivial codepoint->gid
// cmap table. This is test/CLI tooling only — the real loader (ReadPass)
// only ever consumes the bit-exact binary layout of §6, never this format.
type descriptorFile struct {
	NumStates int               `json:"numStates"`
	Passes    []passbuild.Pass  `json:"passes"`
	Cmap      map[string]uint16 `json:"cmap"`
}

func loadDescriptor(path string) ([]*shaper.Pass, map[rune]uint16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing hujson: %w", err)
	}

	var doc descriptorFile
	if err := json.Unmarshal(std, &doc); err != nil {
		return nil, nil, fmt.Errorf("decoding descriptor: %w", err)
	}

	var passes []*shaper.Pass
	for i := range doc.Passes {
		blob := doc.Passes[i].Encode(doc.NumStates)
		p, err := shaper.ReadPass(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("pass %d: %w", i, err)
		}
		passes = append(passes, p)
	}

	cmap := make(map[rune]uint16, len(doc.Cmap))
	for k, v := range doc.Cmap {
		rs := []rune(k)
		if len(rs) != 1 {
			return nil, nil, fmt.Errorf("cmap key %q is not a single codepoint", k)
		}
		cmap[rs[0]] = v
	}
	return passes, cmap, nil
}

type shapeRunner struct {
	passes []*shaper.Pass
	cmap   map[rune]uint16
	dir    shaper.Direction
	cfg    shaper.Config
}

func (r *shapeRunner) Lookup(c rune) (uint16, bool) {
	gid, ok := r.cmap[c]
	return gid, ok
}

func (r *shapeRunner) shape(text string) *shaper.Segment {
	seg := shaper.NewSegment(r.dir)
	shaper.MapCodepoints(seg, r, text)
	seg.PositionSlots()
	for _, p := range r.passes {
		if err := shaper.RunGraphite(p, seg, &r.cfg); err != nil {
			log.Printf("pass error: %v", err)
		}
	}
	return seg
}

// displayColumnWidth is the fixed column width each printed row is padded
// or truncated to, measured with runewidth so a future glyph-label column
// (double-width CJK glyph names, say) still lines up in a terminal the way
// single-byte ASCII does.
const displayColumnWidth = 40

func printResult(seg *shaper.Segment) {
	fmt.Printf("%-6s %-8s %-8s %-8s\n", "gid", "originX", "originY", "advance")
	for h := seg.First(); h != shaper.NullSlot; h = seg.Next(h) {
		s := seg.Slot(h)
		row := fmt.Sprintf("%-6d %-8.1f %-8.1f %-8.1f", s.Gid(), s.OriginX(), s.OriginY(), 0.0)
		fmt.Println(padDisplay(row, displayColumnWidth))
	}
}

// padDisplay pads s with trailing spaces up to width, or truncates it down
// to width, measuring display columns with runewidth rather than byte or
// rune count so double-width runes don't throw off alignment.
func padDisplay(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.FillRight(s, width)
}

func runREPL(sh *shapeRunner) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	for {
		text, err := line.Prompt("shapectl> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			break
		}
		if err != nil {
			log.Printf("prompt: %v", err)
			break
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		line.AppendHistory(text)
		printResult(sh.shape(text))
	}

	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
