package monitoring

import (
	"fmt"
	"sync"
	"testing"
)

func TestSetLogger(t *testing.T) {
	var got []string
	prev := SetLogger(func(format string, v ...any) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	defer SetLogger(prev)

	Logf("[ScoutGrid] pass %d", 3)
	if len(got) != 1 || got[0] != "[ScoutGrid] pass 3" {
		t.Fatalf("captured %q, want one formatted line", got)
	}

	SetLogger(nil)
	Logf("dropped")
	if len(got) != 1 {
		t.Errorf("no-op logger forwarded a line: %q", got)
	}
}

func TestMuteRestores(t *testing.T) {
	calls := 0
	prev := SetLogger(func(string, ...any) { calls++ })
	defer SetLogger(prev)

	restore := Mute()
	Logf("muted")
	restore()
	Logf("audible")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestLogfConcurrentSwap(t *testing.T) {
	prev := SetLogger(func(string, ...any) {})
	defer SetLogger(prev)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Logf("line %d", j)
			}
		}()
		go func() {
			defer wg.Done()
			SetLogger(func(string, ...any) {})
		}()
	}
	wg.Wait()
}
