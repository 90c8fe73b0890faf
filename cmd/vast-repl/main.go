// vast-repl is an interactive demo shell for the vast engine. It exercises
// the same Viewer surface a GUI shell would: open/close, line reads,
// searches, and saves with pending edits.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/holloway-dev/vast"
)

// REPL holds the state of the interactive session.
type REPL struct {
	sessionID uuid.UUID
	viewer    *vast.Viewer
	edits     []vast.Edit
	reader    *bufio.Reader
}

func main() {
	fmt.Println("vast REPL - interactive large-file viewer demo")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	repl := &REPL{
		sessionID: uuid.New(),
		reader:    bufio.NewReader(os.Stdin),
	}

	for {
		fmt.Print("vast> ")
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !repl.handleCommand(input) {
			break
		}
	}

	if repl.viewer != nil {
		repl.viewer.Close()
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()
	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false
	case "open":
		r.cmdOpen(args)
	case "close":
		r.cmdClose()
	case "encoding":
		r.cmdEncoding()
	case "line":
		r.cmdLine(args)
	case "lines":
		r.cmdLines(args)
	case "find":
		r.cmdFind(args)
	case "count":
		r.cmdCount(args)
	case "queue":
		r.cmdQueue(args)
	case "pending":
		r.cmdPending()
	case "save":
		r.cmdSave(args)
	default:
		fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	fmt.Println(`Commands:
  open <path>                 open a file (treated as empty if it doesn't exist)
  close                       close the open file
  encoding                    show the active encoding
  line <n>                    print line n
  lines <start> <count>       print count lines starting at start
  find <pattern>              list offsets of the first 20 literal case-sensitive matches
  count <pattern>             print the total of literal case-sensitive matches
  queue <offset> <old_len> <text>   queue a pending replacement
  pending                     list queued replacements
  save <path>                 apply queued replacements and write path
  help                        show this message
  quit                        exit`)
}

func (r *REPL) cmdOpen(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: open <path>")
		return
	}
	if r.viewer != nil {
		r.viewer.Close()
	}
	v, err := vast.OpenViewer(args[0], nil)
	if err != nil {
		fmt.Printf("open failed: %v\n", err)
		return
	}
	r.viewer = v
	r.edits = nil
	fmt.Printf("opened %s (session %s)\n", args[0], r.sessionID)
}

func (r *REPL) cmdClose() {
	if r.viewer == nil {
		fmt.Println("no file open")
		return
	}
	r.viewer.Close()
	r.viewer = nil
	r.edits = nil
	fmt.Println("closed")
}

func (r *REPL) cmdEncoding() {
	if !r.requireOpen() {
		return
	}
	fmt.Println(r.viewer.Encoding().Tag)
}

func (r *REPL) cmdLine(args []string) {
	if !r.requireOpen() || len(args) < 1 {
		fmt.Println("usage: line <n>")
		return
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("invalid line number")
		return
	}
	text, ok := r.viewer.ReadLine(n)
	if !ok {
		fmt.Println("(no such line)")
		return
	}
	fmt.Println(text)
}

func (r *REPL) cmdLines(args []string) {
	if !r.requireOpen() || len(args) < 2 {
		fmt.Println("usage: lines <start> <count>")
		return
	}
	start, err1 := strconv.ParseInt(args[0], 10, 64)
	count, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		fmt.Println("invalid arguments")
		return
	}
	for i, line := range r.viewer.ReadLines(start, count) {
		fmt.Printf("%d: %s\n", start+int64(i), line)
	}
}

func (r *REPL) cmdFind(args []string) {
	if !r.requireOpen() || len(args) < 1 {
		fmt.Println("usage: find <pattern>")
		return
	}
	pattern := strings.Join(args, " ")
	cancel := vast.NewCancelToken()
	ch, err := r.viewer.StartFetch(vast.SearchQuery{Pattern: pattern, CaseSensitive: true}, 0, 20, cancel)
	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return
	}
	for msg := range ch {
		if msg.Err != nil {
			fmt.Printf("search error: %v\n", msg.Err)
			return
		}
		for _, m := range msg.Chunk.Matches {
			fmt.Printf("  offset %d length %d\n", m.ByteOffset, m.ByteLength)
		}
	}
}

func (r *REPL) cmdCount(args []string) {
	if !r.requireOpen() || len(args) < 1 {
		fmt.Println("usage: count <pattern>")
		return
	}
	pattern := strings.Join(args, " ")
	cancel := vast.NewCancelToken()
	ch, err := r.viewer.StartCount(vast.SearchQuery{Pattern: pattern, CaseSensitive: true}, cancel)
	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return
	}
	var last vast.CountResult
	for msg := range ch {
		if msg.Err != nil {
			fmt.Printf("search error: %v\n", msg.Err)
			return
		}
		last = *msg.Result
	}
	fmt.Printf("%d matches\n", last.MatchesSoFar)
}

func (r *REPL) cmdQueue(args []string) {
	if !r.requireOpen() || len(args) < 3 {
		fmt.Println("usage: queue <offset> <old_len> <text>")
		return
	}
	offset, err1 := strconv.ParseInt(args[0], 10, 64)
	oldLen, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		fmt.Println("invalid arguments")
		return
	}
	text := strings.Join(args[2:], " ")
	r.edits = append(r.edits, vast.Edit{Offset: offset, OldLen: oldLen, NewBytes: []byte(text)})
	fmt.Printf("queued %d pending edit(s)\n", len(r.edits))
}

func (r *REPL) cmdPending() {
	for i, e := range r.edits {
		fmt.Printf("%d: offset=%d old_len=%d new=%q\n", i, e.Offset, e.OldLen, string(e.NewBytes))
	}
}

func (r *REPL) cmdSave(args []string) {
	if !r.requireOpen() || len(args) < 1 {
		fmt.Println("usage: save <path>")
		return
	}
	for msg := range r.viewer.CommitSave(args[0], r.edits) {
		switch {
		case msg.Err != nil:
			fmt.Printf("save failed: %v\n", msg.Err)
			return
		case msg.Progress != nil:
			fmt.Printf("  %d/%d bytes\n", msg.Progress.BytesDone, msg.Progress.BytesTotal)
		case msg.Done != nil:
			fmt.Printf("saved %d bytes, %d edits applied\n", msg.Done.BytesWritten, msg.Done.EditsApplied)
			r.edits = nil
		}
	}
}

func (r *REPL) requireOpen() bool {
	if r.viewer == nil {
		fmt.Println("no file open")
		return false
	}
	return true
}
