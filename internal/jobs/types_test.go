package jobs

import "testing"

func TestBeginTransitionOnlyFromQueued(t *testing.T) {
	next, ok := beginTransition(StatusQueued)
	if !ok || next != StatusProcessing {
		t.Fatalf("beginTransition(queued) = (%s, %v)", next, ok)
	}

	// 再配送されたタスクが終端状態や実行中状態を巻き戻してはならない
	for _, s := range []Status{StatusProcessing, StatusCompleted, StatusFailed} {
		next, ok := beginTransition(s)
		if ok {
			t.Fatalf("beginTransition(%s) allowed", s)
		}
		if next != s {
			t.Fatalf("beginTransition(%s) changed status to %s", s, next)
		}
	}
}

func TestProgressOnlyWhileProcessing(t *testing.T) {
	if !canRecordProgress(StatusProcessing) {
		t.Fatal("progress rejected while processing")
	}
	for _, s := range []Status{StatusQueued, StatusCompleted, StatusFailed} {
		if canRecordProgress(s) {
			t.Fatalf("progress allowed in %s", s)
		}
	}
}

func TestSucceedOnlyFromProcessing(t *testing.T) {
	if !canSucceed(StatusProcessing) {
		t.Fatal("succeed rejected from processing")
	}
	for _, s := range []Status{StatusQueued, StatusCompleted, StatusFailed} {
		if canSucceed(s) {
			t.Fatalf("succeed allowed from %s", s)
		}
	}
}

func TestFailFromQueuedOrProcessing(t *testing.T) {
	// 実行前に入力が失われた場合は queued から直接 failed になれる
	for _, s := range []Status{StatusQueued, StatusProcessing} {
		if !canFail(s) {
			t.Fatalf("fail rejected from %s", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusFailed} {
		if canFail(s) {
			t.Fatalf("fail allowed from terminal state %s", s)
		}
	}
}

func TestTerminal(t *testing.T) {
	if StatusQueued.Terminal() || StatusProcessing.Terminal() {
		t.Fatal("non-terminal status reported terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Fatal("terminal status not reported terminal")
	}
}
