package ngram

import "testing"

func TestTrainAndPredictNextWord(t *testing.T) {
	m := New()
	m.Train([]string{"how", "are"})
	m.Train([]string{"how", "are"})
	m.Train([]string{"are", "you"})
	m.Train([]string{"you", "doing"})

	preds := m.PredictNextWord([]string{"how"}, 5)
	if len(preds) == 0 {
		t.Fatal("expected at least one prediction")
	}
	if preds[0].Text != "are" {
		t.Errorf("top prediction = %q, want %q", preds[0].Text, "are")
	}

	preds2 := m.PredictNextWord([]string{"how", "are"}, 5)
	found := false
	for _, p := range preds2 {
		if p.Text == "you" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'you' among predictions for history [how are], got %+v", preds2)
	}
}

func TestPredictCurrWordGatesOnSimilarity(t *testing.T) {
	m := New()
	m.Train([]string{"hello", "world"})

	preds := m.PredictCurrWord("xyz", nil, 5)
	for _, p := range preds {
		if p.Text == "world" {
			t.Error("did not expect 'world' to match an unrelated prefix")
		}
	}
}

func TestNorm01(t *testing.T) {
	if got := norm01(0, 0, 300); got != 0 {
		t.Errorf("norm01(0,0,300) = %v, want 0", got)
	}
	if got := norm01(300, 0, 300); got != 1 {
		t.Errorf("norm01(300,0,300) = %v, want 1", got)
	}
	if got := norm01(150, 0, 300); got <= 0 || got >= 1 {
		t.Errorf("norm01(150,0,300) = %v, want in (0,1)", got)
	}
}
