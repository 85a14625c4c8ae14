package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func jsonDict(t *testing.T, pairs map[string]uint8) []byte {
	t.Helper()
	data, err := json.Marshal(pairs)
	if err != nil {
		t.Fatalf("marshaling test dictionary: %v", err)
	}
	return data
}

func TestSuggestFindsCompletions(t *testing.T) {
	e := New()
	data := jsonDict(t, map[string]uint8{"hello": 255, "help": 255, "world": 255})
	if err := e.LoadDictionaryJSON(data); err != nil {
		t.Fatalf("LoadDictionaryJSON: %v", err)
	}

	got := e.Suggest("hel", nil, 5)
	if len(got) == 0 {
		t.Fatal("expected non-empty suggestions for 'hel'")
	}
	var sawHello, sawHelp bool
	for _, s := range got {
		switch strings.ToLower(s.Text) {
		case "hello":
			sawHello = true
		case "help":
			sawHelp = true
		}
	}
	if !sawHello || !sawHelp {
		t.Errorf("suggestions %+v missing hello/help", got)
	}
}

func TestSpellCheckDetectsTypo(t *testing.T) {
	e := New()
	data := jsonDict(t, map[string]uint8{"hello": 255, "help": 255, "world": 255})
	if err := e.LoadDictionaryJSON(data); err != nil {
		t.Fatalf("LoadDictionaryJSON: %v", err)
	}

	res := e.SpellCheck("helo", nil, 3)
	if !res.IsTypo {
		t.Fatal("expected is_typo = true")
	}
	if len(res.Suggestions) == 0 {
		t.Fatal("expected non-empty suggestions")
	}
	found := false
	for _, s := range res.Suggestions {
		if strings.EqualFold(s, "hello") {
			found = true
		}
	}
	if !found {
		t.Errorf("suggestions %v do not contain hello", res.Suggestions)
	}
}

func TestSpellCheckAndSuggestRespectCanonicalForms(t *testing.T) {
	e := New()
	data := jsonDict(t, map[string]uint8{"I'm": 200, "don't": 180, "USA": 150, "hello": 100})
	if err := e.LoadDictionaryJSON(data); err != nil {
		t.Fatalf("LoadDictionaryJSON: %v", err)
	}

	imRes := e.SpellCheck("im", nil, 3)
	if !contains(imRes.Suggestions, "I'm") {
		t.Errorf("spell_check(im) suggestions = %v, want to contain I'm", imRes.Suggestions)
	}
	dontRes := e.SpellCheck("dont", nil, 3)
	if !contains(dontRes.Suggestions, "don't") {
		t.Errorf("spell_check(dont) suggestions = %v, want to contain don't", dontRes.Suggestions)
	}
	usaRes := e.SpellCheck("usa", nil, 3)
	if !usaRes.IsValid {
		t.Errorf("spell_check(usa).is_valid = false, want true (case-variant match)")
	}

	imSuggest := e.Suggest("im", nil, 5)
	if !containsSuggestionText(imSuggest, "I'm") {
		t.Errorf("suggest(im) = %+v, want to contain I'm", imSuggest)
	}
	usSuggest := e.Suggest("us", nil, 5)
	if !containsSuggestionText(usSuggest, "USA") {
		t.Errorf("suggest(us) = %+v, want to contain USA", usSuggest)
	}
}

func TestLearnWordDrivesNgramPrediction(t *testing.T) {
	e := New()
	e.LearnWord("are", []string{"how"})
	e.LearnWord("are", []string{"how"})
	e.LearnWord("you", []string{"are"})
	e.LearnWord("doing", []string{"you"})

	preds := e.PredictNextWord([]string{"how"}, 5)
	if len(preds) == 0 || !strings.EqualFold(preds[0].Text, "are") {
		t.Fatalf("predict_next_word([how]) = %+v, want top text 'are'", preds)
	}

	preds2 := e.PredictNextWord([]string{"how", "are"}, 5)
	if !containsSuggestionText(preds2, "you") {
		t.Errorf("predict_next_word([how,are]) = %+v, want to contain you", preds2)
	}
}

func TestGetFrequencyNormalizesToUnitRange(t *testing.T) {
	e := New()
	if got := e.GetFrequency("unknown"); got != 0 {
		t.Errorf("GetFrequency(unknown) = %v, want 0", got)
	}

	e.LearnWord("hello", nil)
	got := e.GetFrequency("hello")
	if got <= 0 || got > 1 {
		t.Fatalf("GetFrequency(hello) = %v, want in (0,1]", got)
	}

	for i := 0; i < 100; i++ {
		e.LearnWord("hello", nil)
	}
	if got := e.GetFrequency("hello"); got != 1 {
		t.Errorf("GetFrequency(hello) after saturation = %v, want 1", got)
	}
}

func TestSuggestCapsAtMaxCountAndDedupes(t *testing.T) {
	e := New()
	data := jsonDict(t, map[string]uint8{
		"cat": 255, "catalog": 200, "cats": 180, "category": 150, "catering": 120,
	})
	if err := e.LoadDictionaryJSON(data); err != nil {
		t.Fatalf("LoadDictionaryJSON: %v", err)
	}
	got := e.Suggest("cat", nil, 2)
	if len(got) > 2 {
		t.Fatalf("len(got) = %d, want <= 2", len(got))
	}
	seen := make(map[string]bool)
	for _, s := range got {
		k := strings.ToLower(s.Text)
		if seen[k] {
			t.Errorf("duplicate suggestion %q", s.Text)
		}
		seen[k] = true
	}
}

func TestSuggestShortPrefixReturnsEmpty(t *testing.T) {
	e := New()
	if got := e.Suggest("a", nil, 5); got != nil {
		t.Errorf("Suggest with len<2 prefix = %+v, want nil", got)
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func containsSuggestionText(ss []Suggestion, want string) bool {
	for _, s := range ss {
		if s.Text == want {
			return true
		}
	}
	return false
}
