package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFoldKey(t *testing.T) {
	tc := []struct {
		name string
		a, b string
		same bool
	}{
		{name: "case", a: "Road Trip", b: "road trip", same: true},
		{name: "whitespace", a: "  Road Trip ", b: "Road Trip", same: true},
		{name: "sigma", a: "ΣΑΣ", b: "σας", same: true},
		{name: "different", a: "Road Trip", b: "Road Trips", same: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameName(tt.a, tt.b); got != tt.same {
				t.Errorf("SameName(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Bohemian Rhapsody", "RHAP") {
		t.Error("expected case-insensitive substring match")
	}
	if ContainsFold("Bohemian Rhapsody", "waltz") {
		t.Error("unexpected match")
	}
}

func TestDistinct(t *testing.T) {
	got := Distinct([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Distinct() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Distinct()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDensify(t *testing.T) {
	t.Run("renumbers gaps", func(t *testing.T) {
		songs := []PlaylistSong{{SongID: "c", Order: 9}, {SongID: "a", Order: 2}, {SongID: "b", Order: 5}}
		got := Densify(songs)

		if !IsDense(got) {
			t.Fatalf("expected dense orders, got %+v", got)
		}
		if got[0].SongID != "a" || got[1].SongID != "b" || got[2].SongID != "c" {
			t.Errorf("unexpected order: %+v", got)
		}
		if songs[0].Order != 9 {
			t.Error("Densify must not mutate its input")
		}
	})

	t.Run("stable on ties", func(t *testing.T) {
		got := Densify([]PlaylistSong{{SongID: "x", Order: 1}, {SongID: "y", Order: 1}})
		if got[0].SongID != "x" || got[1].SongID != "y" {
			t.Errorf("expected stable order, got %+v", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		got := Densify(nil)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})
}

func TestPlaylist(t *testing.T) {
	owner := &User{ID: "u1", Email: "a@example.com", DisplayName: "Ada", Avatar: "ada.png"}

	t.Run("NewPlaylist copies owner fields", func(t *testing.T) {
		p := NewPlaylist(" Mix ", owner)
		if p.Name != "Mix" || p.OwnerID != "u1" || p.OwnerName != "Ada" || p.OwnerAvatar != "ada.png" {
			t.Errorf("unexpected playlist: %+v", p)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("RemoveSong densifies", func(t *testing.T) {
		p := NewPlaylist("Mix", owner)
		p.Songs = NewSongList([]string{"s1", "s2", "s1", "s3"})

		if !p.RemoveSong("s1") {
			t.Fatal("expected song to be removed")
		}
		if got := p.SongIDs(); len(got) != 2 || got[0] != "s2" || got[1] != "s3" {
			t.Errorf("unexpected songs after removal: %v", got)
		}
		if !IsDense(p.Songs) {
			t.Errorf("expected dense orders, got %+v", p.Songs)
		}
		if p.RemoveSong("missing") {
			t.Error("removing a missing song should report false")
		}
	})

	t.Run("Clone is deep", func(t *testing.T) {
		p := NewPlaylist("Mix", owner)
		p.Songs = NewSongList([]string{"s1"})
		p.Listeners = []string{"u2"}

		c := p.Clone()
		c.Songs[0].SongID = "changed"
		c.Listeners[0] = "changed"

		if p.Songs[0].SongID != "s1" || p.Listeners[0] != "u2" {
			t.Error("Clone shares backing arrays with original")
		}
	})

	t.Run("JSON includes listener count", func(t *testing.T) {
		p := NewPlaylist("Mix", owner)
		p.Listeners = []string{"u2", "u3"}

		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal error: %v", err)
		}
		if decoded["listenerCount"] != float64(2) {
			t.Errorf("expected listenerCount 2, got %v", decoded["listenerCount"])
		}
		if decoded["name"] != "Mix" {
			t.Errorf("expected name Mix, got %v", decoded["name"])
		}
	})

	t.Run("Validate rejects missing owner", func(t *testing.T) {
		p := NewPlaylist("Mix", nil)
		if err := p.Validate(); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestSongSameTriple(t *testing.T) {
	s := NewSong("u1", "Heroes", "David Bowie", 1977, "abc")

	if !s.SameTriple(" heroes", "DAVID BOWIE", 1977) {
		t.Error("expected folded triple match")
	}
	if s.SameTriple("Heroes", "David Bowie", 1978) {
		t.Error("different year must not match")
	}
}

func TestUserPasswordHashNotSerialized(t *testing.T) {
	u := NewUser("a@example.com", "Ada", "", "secret-hash")
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if strings.Contains(string(data), "secret-hash") {
		t.Errorf("password hash leaked into JSON: %s", data)
	}
}
