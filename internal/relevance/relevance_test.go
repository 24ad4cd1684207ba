package relevance

import "testing"

func textSource(name, category string) Source {
	return Source{Name: name, Category: category, Content: "contenu " + name}
}

func attachmentSource(name string) Source {
	return Source{Name: name, HasAttachment: true}
}

func TestSelectFallbackReturnsOnlyAttachments(t *testing.T) {
	sources := []Source{
		textSource("notes 1", "divers"),
		attachmentSource("scan cours.pdf"),
		textSource("notes 2", "divers"),
		textSource("notes 3", "divers"),
		attachmentSource("photo tableau.jpg"),
		textSource("notes 4", "divers"),
		textSource("notes 5", "divers"),
	}
	got := Select("bonjour, peux-tu m'aider ?", sources)
	if len(got) != 2 {
		t.Fatalf("got %d sources, want 2 attachments", len(got))
	}
	if got[0].Name != "scan cours.pdf" || got[1].Name != "photo tableau.jpg" {
		t.Fatalf("order not preserved: %q, %q", got[0].Name, got[1].Name)
	}
}

func TestSelectFallbackCappedAtThree(t *testing.T) {
	var sources []Source
	for i := 0; i < 6; i++ {
		sources = append(sources, attachmentSource("piece jointe"))
	}
	got := Select("sans mot cle connu", sources)
	if len(got) != 3 {
		t.Fatalf("got %d sources, want cap of 3", len(got))
	}
}

func TestSelectMatchedTagCappedAtFive(t *testing.T) {
	var sources []Source
	for i := 0; i < 8; i++ {
		sources = append(sources, Source{Name: "cours cardiologie", Content: "fiche"})
	}
	got := Select("explique-moi le coeur", sources)
	if len(got) > 5 {
		t.Fatalf("got %d sources, want at most 5", len(got))
	}
}

func TestSelectAttachmentsAlwaysIncludedOnMatch(t *testing.T) {
	sources := []Source{
		textSource("cours urgences vitales", "urgences"),
		attachmentSource("protocole.pdf"),
	}
	got := Select("quel est le bilan en urgence ?", sources)
	if len(got) != 2 {
		t.Fatalf("got %d sources, want 2", len(got))
	}
	if got[0].Name != "protocole.pdf" {
		t.Fatalf("attachment not first: %q", got[0].Name)
	}
}

func TestSelectMatchesByNameContentOrCategory(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		source Source
		want   bool
	}{
		{
			name:   "name_contains_tag",
			query:  "question de pharmaco",
			source: Source{Name: "Fiches pharmacologie S2"},
			want:   true,
		},
		{
			name:   "category_equals_tag",
			query:  "les medicaments antalgiques",
			source: Source{Name: "fiches S2", Category: "pharmacologie"},
			want:   true,
		},
		{
			name:   "content_contains_tag",
			query:  "c'est quoi la rcp",
			source: Source{Name: "fiches", Content: "module reanimation avancee"},
			want:   true,
		},
		{
			name:   "no_tag_anywhere",
			query:  "question de pharmaco",
			source: Source{Name: "cours anatomie", Category: "anatomie"},
			want:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Select(tc.query, []Source{tc.source})
			if (len(got) == 1) != tc.want {
				t.Fatalf("Select(%q) included=%v, want %v", tc.query, len(got) == 1, tc.want)
			}
		})
	}
}

func TestSelectArabicTrigger(t *testing.T) {
	sources := []Source{textSource("cours anatomie generale", "anatomie")}
	got := Select("لدي سؤال في تشريح الجسم", sources)
	if len(got) != 1 {
		t.Fatalf("arabic trigger did not match, got %d sources", len(got))
	}
}

func TestSelectDeduplicatesAttachmentThatAlsoMatches(t *testing.T) {
	s := Source{Name: "cours urgences", Category: "urgences", HasAttachment: true}
	got := Select("urgence vitale", []Source{s})
	if len(got) != 1 {
		t.Fatalf("got %d sources, want 1 after dedupe", len(got))
	}
}
