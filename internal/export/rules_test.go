package export

import "testing"

func TestNormalizeRules(t *testing.T) {
	rules := normalizeRules([]Rule{
		{Categories: nil, Destination: ".", Priority: 99},
		{Categories: []string{"sfw"}, Destination: "sfw"},
		{Categories: []string{"sfw", "portrait"}, Destination: "sfw/portrait"},
	})

	if rules[len(rules)-1].Categories != nil || rules[len(rules)-1].Priority != 0 {
		t.Fatalf("catch-all = %+v, want pinned at priority 0 and sorted last", rules[len(rules)-1])
	}
	if rules[0].Destination != "sfw/portrait" {
		t.Fatalf("highest priority rule = %+v, want the later positional rule", rules[0])
	}
}

func TestMatchRule(t *testing.T) {
	rules := normalizeRules([]Rule{
		{Categories: nil, Destination: "."},
		{Categories: []string{"sfw"}, Destination: "sfw"},
		{Categories: []string{"sfw", "portrait"}, Destination: "sfw/portrait"},
	})

	cases := []struct {
		categories []string
		want       string
	}{
		{[]string{"sfw", "portrait"}, "sfw/portrait"},
		{[]string{"sfw", "portrait", "extra"}, "sfw/portrait"},
		{[]string{"sfw"}, "sfw"},
		{[]string{"portrait"}, "."},
		{nil, "."},
	}
	for _, tc := range cases {
		rule, ok := matchRule(rules, tc.categories)
		if !ok {
			t.Fatalf("matchRule(%v) found nothing", tc.categories)
		}
		if rule.Destination != tc.want {
			t.Errorf("matchRule(%v) = %q, want %q", tc.categories, rule.Destination, tc.want)
		}
	}

	noCatchAll := normalizeRules([]Rule{{Categories: []string{"sfw"}, Destination: "sfw"}})
	if _, ok := matchRule(noCatchAll, nil); ok {
		t.Fatal("matchRule matched without a catch-all")
	}
}
