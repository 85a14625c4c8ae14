package personal

import "testing"

func TestLearnWordMonotone(t *testing.T) {
	s := New()
	s.LearnWord("hello", nil)
	first, _ := s.Frequency("hello")
	s.LearnWord("hello", nil)
	second, _ := s.Frequency("hello")
	if second <= first {
		t.Fatalf("frequency did not increase: %d -> %d", first, second)
	}
}

func TestLearnWordSaturates(t *testing.T) {
	s := New()
	for i := 0; i < 100; i++ {
		s.LearnWord("hello", nil)
	}
	freq, _ := s.Frequency("hello")
	if freq != MaxPersonalFrequency {
		t.Fatalf("freq = %d, want %d", freq, MaxPersonalFrequency)
	}
}

func TestLearnWordIgnoresShortWords(t *testing.T) {
	s := New()
	s.LearnWord("a", nil)
	if s.Contains("a") {
		t.Fatal("expected single-character word to be ignored")
	}
}

func TestPenalizeWordRemovesAtZero(t *testing.T) {
	s := New()
	s.LearnWord("hi", nil)
	for i := 0; i < 200; i++ {
		s.PenalizeWord("hi")
	}
	if s.Contains("hi") {
		t.Fatal("expected word to be removed after repeated penalties")
	}
}

func TestRemoveWord(t *testing.T) {
	s := New()
	s.LearnWord("hello", nil)
	if !s.RemoveWord("hello") {
		t.Fatal("expected removal to succeed")
	}
	if s.RemoveWord("hello") {
		t.Fatal("expected second removal to report not-found")
	}
}

func TestContextScore(t *testing.T) {
	s := New()
	s.LearnWord("are", []string{"how"})
	s.LearnWord("are", []string{"how"})

	score := s.ContextScore("are", []string{"how"})
	if score <= 0 {
		t.Fatalf("ContextScore = %v, want > 0", score)
	}
}

func TestExportImportDictRoundTrip(t *testing.T) {
	s := New()
	s.LearnWord("hello", nil)

	data, err := s.ExportDict()
	if err != nil {
		t.Fatalf("ExportDict: %v", err)
	}

	s2 := New()
	if err := s2.ImportDict(data); err != nil {
		t.Fatalf("ImportDict: %v", err)
	}
	if !s2.Contains("hello") {
		t.Fatal("expected imported store to contain 'hello'")
	}
}
