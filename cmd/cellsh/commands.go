package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/danmuck/cellctl/internal/cell"
	"github.com/danmuck/cellctl/internal/record"
	"github.com/rs/zerolog"
)

// originOwner labels the handle the shell itself starts with.
const originOwner = "shell"

// shell owns one live cell plus every handle and pinned lease issued through
// it, keyed by owner label. Pinned leases exist so lease conflicts can be
// provoked and inspected interactively; a refused lease prints and the shell
// keeps going.
type shell struct {
	out     io.Writer
	handles map[string]*cell.Handle[*record.Record]
	reads   map[string]*cell.ReadLease[*record.Record]
	writes  map[string]*cell.WriteLease[*record.Record]
}

func newShell(id string, value int, log zerolog.Logger, out io.Writer) *shell {
	sh := &shell{
		out:     out,
		handles: make(map[string]*cell.Handle[*record.Record]),
		reads:   make(map[string]*cell.ReadLease[*record.Record]),
		writes:  make(map[string]*cell.WriteLease[*record.Record]),
	}
	rec := record.New(id, value, log)
	sh.handles[originOwner] = cell.NewWithDestroy(originOwner, rec, func(r *record.Record) {
		fmt.Fprintf(sh.out, "record %q destroyed (value=%d)\n", r.ID(), r.Value())
	})
	return sh
}

// dispatch runs one command line and reports whether the shell should exit.
func (sh *shell) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		sh.printHelp()
	case "owners":
		sh.cmdOwners()
	case "leases":
		sh.cmdLeases()
	case "clone":
		sh.cmdClone(args)
	case "release":
		sh.cmdRelease(args)
	case "show":
		sh.cmdShow(args)
	case "set":
		sh.cmdSet(args)
	case "inc":
		sh.cmdInc(args)
	case "hold":
		sh.cmdHold(args)
	case "drop":
		sh.cmdDrop(args)
	default:
		fmt.Fprintf(sh.out, "unknown command %q (try help)\n", cmd)
	}
	return false
}

// anyHandle returns a deterministic live handle for label-free commands.
func (sh *shell) anyHandle() (*cell.Handle[*record.Record], bool) {
	if len(sh.handles) == 0 {
		return nil, false
	}
	labels := make([]string, 0, len(sh.handles))
	for label := range sh.handles {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return sh.handles[labels[0]], true
}

// handleFor resolves an optional trailing label argument, defaulting to the
// shell's own owner.
func (sh *shell) handleFor(args []string) (*cell.Handle[*record.Record], string, bool) {
	label := originOwner
	if len(args) > 0 {
		label = args[0]
	}
	h, ok := sh.handles[label]
	if !ok {
		fmt.Fprintf(sh.out, "owner %q not found\n", label)
		return nil, label, false
	}
	return h, label, true
}

func (sh *shell) cmdOwners() {
	h, ok := sh.anyHandle()
	if !ok {
		fmt.Fprintln(sh.out, "no live owners")
		return
	}
	fmt.Fprintf(sh.out, "owners: %d\n", h.Owners())
}

func (sh *shell) cmdLeases() {
	h, ok := sh.anyHandle()
	if !ok {
		fmt.Fprintln(sh.out, "no live owners")
		return
	}
	snap := h.SnapshotLeases()
	switch snap.Mode {
	case cell.ModeWrite:
		fmt.Fprintf(sh.out, "gate: write holder: %s\n", strings.Join(snap.Holders, ", "))
	case cell.ModeRead:
		fmt.Fprintf(sh.out, "gate: read (readers=%d) holders: %s\n", snap.Readers, strings.Join(snap.Holders, ", "))
	default:
		fmt.Fprintln(sh.out, "gate: idle")
	}
}

func (sh *shell) cmdClone(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(sh.out, "usage: clone <label>")
		return
	}
	label := args[0]
	if _, exists := sh.handles[label]; exists {
		fmt.Fprintf(sh.out, "owner %q already exists\n", label)
		return
	}
	src, ok := sh.anyHandle()
	if !ok {
		fmt.Fprintln(sh.out, "no live owners")
		return
	}
	h := src.Clone(label)
	sh.handles[label] = h
	fmt.Fprintf(sh.out, "cloned owner %q (owners=%d)\n", label, h.Owners())
}

func (sh *shell) cmdRelease(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(sh.out, "usage: release <label>")
		return
	}
	label := args[0]
	h, ok := sh.handles[label]
	if !ok {
		fmt.Fprintf(sh.out, "owner %q not found\n", label)
		return
	}
	if h.Owners() == 1 {
		if snap := h.SnapshotLeases(); snap.Mode != cell.ModeIdle {
			fmt.Fprintf(sh.out, "cannot release last owner %q while leases are out (drop them first)\n", label)
			return
		}
	}
	h.Release()
	delete(sh.handles, label)
	fmt.Fprintf(sh.out, "released owner %q (owners=%d)\n", label, h.Owners())
}

func (sh *shell) cmdShow(args []string) {
	h, label, ok := sh.handleFor(args)
	if !ok {
		return
	}
	lease, err := h.Read()
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	defer lease.Release()
	rec := lease.Value()
	fmt.Fprintf(sh.out, "%s = %d (read by %q)\n", rec.ID(), rec.Value(), label)
}

func (sh *shell) cmdSet(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.out, "usage: set <value> [label]")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(sh.out, "set needs an integer, got %q\n", args[0])
		return
	}
	h, _, ok := sh.handleFor(args[1:])
	if !ok {
		return
	}
	lease, err := h.Write()
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	defer lease.Release()
	rec := lease.Value()
	rec.SetValue(n)
	fmt.Fprintf(sh.out, "set %s = %d\n", rec.ID(), rec.Value())
}

func (sh *shell) cmdInc(args []string) {
	h, _, ok := sh.handleFor(args)
	if !ok {
		return
	}
	lease, err := h.Write()
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	defer lease.Release()
	rec := lease.Value()
	rec.Increment()
	fmt.Fprintf(sh.out, "inc %s = %d\n", rec.ID(), rec.Value())
}

func (sh *shell) cmdHold(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(sh.out, "usage: hold <read|write> <label>")
		return
	}
	mode, label := args[0], args[1]
	h, ok := sh.handles[label]
	if !ok {
		fmt.Fprintf(sh.out, "owner %q not found\n", label)
		return
	}
	switch mode {
	case "read":
		if _, held := sh.reads[label]; held {
			fmt.Fprintf(sh.out, "owner %q already holds a pinned read lease\n", label)
			return
		}
		lease, err := h.Read()
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return
		}
		sh.reads[label] = lease
		fmt.Fprintf(sh.out, "holding read lease for %q\n", label)
	case "write":
		if _, held := sh.writes[label]; held {
			fmt.Fprintf(sh.out, "owner %q already holds a pinned write lease\n", label)
			return
		}
		lease, err := h.Write()
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return
		}
		sh.writes[label] = lease
		fmt.Fprintf(sh.out, "holding write lease for %q\n", label)
	default:
		fmt.Fprintln(sh.out, "usage: hold <read|write> <label>")
	}
}

func (sh *shell) cmdDrop(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(sh.out, "usage: drop <label>")
		return
	}
	label := args[0]
	dropped := false
	if lease, ok := sh.reads[label]; ok {
		lease.Release()
		delete(sh.reads, label)
		dropped = true
	}
	if lease, ok := sh.writes[label]; ok {
		lease.Release()
		delete(sh.writes, label)
		dropped = true
	}
	if !dropped {
		fmt.Fprintf(sh.out, "no pinned leases for %q\n", label)
		return
	}
	fmt.Fprintf(sh.out, "dropped leases for %q\n", label)
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, "commands:")
	fmt.Fprintln(sh.out, "  owners                  current owner count")
	fmt.Fprintln(sh.out, "  leases                  lease gate state and holders")
	fmt.Fprintln(sh.out, "  show [label]            read the record through an owner's handle")
	fmt.Fprintln(sh.out, "  set <value> [label]     replace the value under a write lease")
	fmt.Fprintln(sh.out, "  inc [label]             increment the value under a write lease")
	fmt.Fprintln(sh.out, "  clone <label>           register a new owner")
	fmt.Fprintln(sh.out, "  release <label>         drop an owner's reference")
	fmt.Fprintln(sh.out, "  hold <read|write> <label>  pin a lease to provoke conflicts")
	fmt.Fprintln(sh.out, "  drop <label>            release an owner's pinned leases")
	fmt.Fprintln(sh.out, "  exit                    leave the shell")
}
