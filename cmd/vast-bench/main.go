// vast-bench is a benchmark and stress test for the vast engine. It
// generates a large text file and measures the cost of opening it,
// building its line index, searching it, and rewriting it.
package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/holloway-dev/vast"
)

const (
	fileSize  = 512 * 1024 * 1024 // 512 MB
	lineWidth = 80
)

// BenchResult is one timed measurement, printed in the teacher's
// name/duration/throughput table format.
type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Millisecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Millisecond))
}

func main() {
	fmt.Println("vast Benchmark and Stress Test")
	fmt.Println("==============================")
	fmt.Printf("File size: %d MB\n", fileSize/(1024*1024))
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	tmpDir, err := os.MkdirTemp("", "vast-bench-*")
	if err != nil {
		fmt.Printf("failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "test-large.txt")

	var results []BenchResult

	fmt.Println("Generating test file...")
	result := generateTestFile(testFile)
	results = append(results, result)
	fmt.Println(result)
	fmt.Println()

	runBench := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-40s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Millisecond))
		results = append(results, result)
	}

	fmt.Println("Running benchmarks...")
	fmt.Println()

	fmt.Println("Open and index:")
	var v *vast.Viewer
	runBench("OpenViewer (mmap + line index)", func() BenchResult {
		start := time.Now()
		var err error
		v, err = vast.OpenViewer(testFile, nil)
		if err != nil {
			fmt.Printf("\nopen failed: %v\n", err)
			os.Exit(1)
		}
		return BenchResult{Name: "OpenViewer (mmap + line index)", Duration: time.Since(start)}
	})
	defer v.Close()
	fmt.Println()

	fmt.Println("Line access:")
	runBench("ReadLine (first line)", func() BenchResult {
		start := time.Now()
		v.ReadLine(0)
		return BenchResult{Name: "ReadLine (first line)", Duration: time.Since(start)}
	})
	runBench("ReadLine (middle line, estimated)", func() BenchResult {
		mid := fileSize / (2 * (lineWidth + 1))
		start := time.Now()
		v.ReadLine(int64(mid))
		return BenchResult{Name: "ReadLine (middle line, estimated)", Duration: time.Since(start)}
	})
	fmt.Println()

	fmt.Println("Search:")
	runBench("CountMatches (rare literal)", func() BenchResult {
		start := time.Now()
		cancel := vast.NewCancelToken()
		ch, err := v.StartCount(vast.SearchQuery{Pattern: "NEEDLE", CaseSensitive: true}, cancel)
		if err != nil {
			return BenchResult{Name: "CountMatches (rare literal)", Duration: time.Since(start), Extra: err.Error()}
		}
		var n int64
		for msg := range ch {
			if msg.Result != nil {
				n = msg.Result.MatchesSoFar
			}
		}
		return BenchResult{Name: "CountMatches (rare literal)", Duration: time.Since(start), Extra: fmt.Sprintf("%d matches", n)}
	})
	fmt.Println()

	fmt.Println("Replace:")
	runBench("ReplaceCopyOnWrite (1000 scattered edits)", func() BenchResult {
		edits := sampleEdits(v, 1000)
		dst := testFile + ".out"
		start := time.Now()
		var r vast.Replacer
		for pm := range r.ReplaceCopyOnWrite(testFile, dst, edits, false, vast.NewCancelToken()) {
			if pm.Err != nil {
				return BenchResult{Name: "ReplaceCopyOnWrite (1000 scattered edits)", Duration: time.Since(start), Extra: pm.Err.Error()}
			}
		}
		os.Remove(dst)
		return BenchResult{Name: "ReplaceCopyOnWrite (1000 scattered edits)", Duration: time.Since(start), Ops: len(edits)}
	})
	fmt.Println()

	fmt.Println("Summary:")
	fmt.Println("========")
	for _, r := range results {
		fmt.Println(r)
	}
}

func generateTestFile(path string) BenchResult {
	start := time.Now()

	f, err := os.Create(path)
	if err != nil {
		fmt.Printf("failed to create test file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	line := make([]byte, lineWidth+1)
	written := int64(0)
	lineNum := 0
	for written < fileSize {
		fillPseudoLine(line, lineNum)
		n, err := f.Write(line)
		if err != nil {
			fmt.Printf("write failed: %v\n", err)
			os.Exit(1)
		}
		written += int64(n)
		lineNum++
	}

	return BenchResult{Name: "Generate test file", Duration: time.Since(start), Extra: fmt.Sprintf("%d lines", lineNum)}
}

// fillPseudoLine writes a line of random lowercase letters, with an embedded
// "NEEDLE" marker every 100,000 lines so CountMatches has something rare
// but nonzero to find.
func fillPseudoLine(line []byte, lineNum int) {
	seed := make([]byte, lineWidth)
	rand.Read(seed)
	for i := range line[:lineWidth] {
		line[i] = 'a' + seed[i]%26
	}
	if lineNum%100000 == 0 {
		copy(line, []byte("NEEDLE marks this line for the benchmark's count pass"))
	}
	line[lineWidth] = '\n'
}

func sampleEdits(v *vast.Viewer, n int) []vast.Edit {
	edits := make([]vast.Edit, 0, n)
	stride := fileSize / int64(n)
	for i := 0; i < n; i++ {
		offset := int64(i) * stride
		if offset+1 >= fileSize {
			break
		}
		edits = append(edits, vast.Edit{Offset: offset, OldLen: 1, NewBytes: []byte("X")})
	}
	return edits
}
