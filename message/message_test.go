package message

import (
	"sync"
	"testing"
)

func TestListInsertDeduplicates(t *testing.T) {
	var l List
	l.Add(3, UniformNotSet, "color")
	l.Add(3, UniformNotSet, "color")
	l.Add(3, UniformNotSet, "size")
	l.Add(4, UniformNotSet, "color")

	if got := l.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if got := l.Count(UniformNotSet); got != 3 {
		t.Errorf("Count(UniformNotSet) = %d, want 3", got)
	}
	if !l.Has(4, UniformNotSet) {
		t.Error("Has(4, UniformNotSet) = false, want true")
	}
	if l.Has(4, BufferNotSet) {
		t.Error("Has(4, BufferNotSet) = true, want false")
	}
}

func TestListMessagesIsSnapshot(t *testing.T) {
	var l List
	l.Add(1, ProgramNotAssigned, "")
	snap := l.Messages()
	l.Clear()

	if len(snap) != 1 {
		t.Fatalf("len(snapshot) = %d, want 1", len(snap))
	}
	if l.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", l.Len())
	}
}

func TestListConcurrentInsert(t *testing.T) {
	var l List
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Add(ItemID(i%4), CallDuration, "1ms")
		}(i)
	}
	wg.Wait()
	if got := l.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
}

func TestMessageString(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{ForItem(7, ProgramNotAssigned, ""), "item 7: warning: no program set"},
		{ForItem(7, UniformNotSet, "color"), "item 7: warning: uniform not set: color"},
		{ForFile("a.wgsl", 3, ShaderError, "unknown type"), "a.wgsl:3: error: unknown type"},
		{ForFile("a.wgsl", 0, LoadingFileFailed, ""), "a.wgsl: error: loading file failed"},
		{Message{Type: GPUContextNotAvailable}, "error: GPU context not available"},
	}
	for _, tt := range tests {
		if got := tt.msg.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestTypeSeverity(t *testing.T) {
	if GPUContextNotAvailable.Severity() != Error {
		t.Error("GPUContextNotAvailable should be an error")
	}
	if CallDuration.Severity() != Info {
		t.Error("CallDuration should be informational")
	}
	if Type(9999).Severity() != Warning {
		t.Error("unknown types default to warning")
	}
}

func TestParseLog(t *testing.T) {
	log := `shader.wgsl:12:5: error: unknown identifier
ERROR: 0:4: 'x' : undeclared
7:1: warning: unused variable
note: something happened
link info: all good`

	got := ParseLog(log, 9, "main.wgsl")
	want := []Message{
		ForFile("shader.wgsl", 12, ShaderError, "unknown identifier"),
		ForFile("main.wgsl", 4, ShaderError, "'x' : undeclared"),
		ForFile("main.wgsl", 7, ShaderWarning, "unused variable"),
		ForItem(9, ShaderWarning, "note: something happened"),
		ForItem(9, ShaderInfo, "link info: all good"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
