package bintrie

import "testing"

func TestInsertAndSearch(t *testing.T) {
	tr := New()
	tr.Insert("test", 100)
	tr.Insert("testing", 50)

	idx, found := tr.SearchPrefix("test")
	if !found {
		t.Fatal("expected to find 'test'")
	}
	words := tr.CollectWords(idx, "test", 10)
	if len(words) != 2 || words[0].Text != "test" || words[0].Frequency != 100 {
		t.Fatalf("got %+v, want 'test' (frequency 100) first, followed by 'testing'", words)
	}

	if _, found := tr.SearchPrefix("testy"); found {
		t.Fatal("did not expect to find 'testy'")
	}
}

func TestInsertIgnoresEmptyAndZeroFreq(t *testing.T) {
	tr := New()
	tr.Insert("", 50)
	tr.Insert("word", 0)
	if tr.WordCount() != 0 {
		t.Fatalf("WordCount = %d, want 0", tr.WordCount())
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	tr := New()
	tr.Insert("test", 100)
	tr.Insert("testing", 50)
	tr.canonical["im"] = "I'm"
	tr.canonical["dont"] = "don't"

	data, err := tr.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if got.NodeCount() != tr.NodeCount() {
		t.Errorf("NodeCount = %d, want %d", got.NodeCount(), tr.NodeCount())
	}
	if got.CanonicalCount() != 2 {
		t.Errorf("CanonicalCount = %d, want 2", got.CanonicalCount())
	}
	if got.CanonicalForms()["im"] != "I'm" {
		t.Errorf(`CanonicalForms()["im"] = %q, want "I'm"`, got.CanonicalForms()["im"])
	}

	idx, found := got.SearchPrefix("testing")
	if !found {
		t.Fatal("expected 'testing' to survive round trip")
	}
	words := got.CollectWords(idx, "testing", 10)
	if len(words) != 1 || words[0].Frequency != 50 {
		t.Fatalf("got %+v, want frequency 50", words)
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	buf := make([]byte, headerSize)
	copy(buf[0:4], "XXXX")
	if _, err := Deserialize(buf); err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestDeserializeRejectsShortBuffer(t *testing.T) {
	if _, err := Deserialize([]byte("short")); err == nil {
		t.Fatal("expected an error for an undersized buffer")
	}
}

func TestCollectWordsRespectsLimit(t *testing.T) {
	tr := New()
	for _, w := range []string{"apple", "apply", "apt", "ape", "april"} {
		tr.Insert(w, 10)
	}
	idx, _ := tr.SearchPrefix("")
	words := tr.CollectWords(idx, "", 2)
	if len(words) != 2 {
		t.Fatalf("len(words) = %d, want 2", len(words))
	}
}

func TestBuildFromJSONWithCanonical(t *testing.T) {
	data := []byte(`{"I'm":200,"don't":180,"USA":150,"hello":100}`)
	tr, err := BuildFromJSON(data)
	if err != nil {
		t.Fatalf("BuildFromJSON: %v", err)
	}
	if tr.CanonicalCount() != 3 {
		t.Fatalf("CanonicalCount = %d, want 3", tr.CanonicalCount())
	}
	if tr.CanonicalForms()["im"] != "I'm" {
		t.Errorf(`CanonicalForms()["im"] = %q, want "I'm"`, tr.CanonicalForms()["im"])
	}
	if tr.CanonicalForms()["dont"] != "don't" {
		t.Errorf(`CanonicalForms()["dont"] = %q, want "don't"`, tr.CanonicalForms()["dont"])
	}
	if tr.CanonicalForms()["usa"] != "USA" {
		t.Errorf(`CanonicalForms()["usa"] = %q, want "USA"`, tr.CanonicalForms()["usa"])
	}
	if _, ok := tr.CanonicalForms()["hello"]; ok {
		t.Error(`"hello" should not get a canonical entry`)
	}
}

func TestCanonicalPredicates(t *testing.T) {
	cases := []struct {
		word string
		want bool
	}{
		{"don't", true},
		{"USA", true},
		{"Europe", true},
		{"hello", false},
		{"USAA", true},
		{"USAAAA", false},
		{"I", false},
	}
	for _, c := range cases {
		if got := ShouldPreserveCanonical(c.word); got != c.want {
			t.Errorf("ShouldPreserveCanonical(%q) = %v, want %v", c.word, got, c.want)
		}
	}
}
