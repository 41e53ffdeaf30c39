package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	obj := Object{"zeta": Number(1), "alpha": Number(2)}
	b, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"zeta":1}`, string(b))
}

func TestMarshalCanonical_Scalars(t *testing.T) {
	cases := []struct {
		in   Value
		want string
	}{
		{Null{}, "null"},
		{nil, "null"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Number(1.5), "1.5"},
		{Number(10), "10"},
		{String("hi"), `"hi"`},
		{List{Number(1), String("a")}, `[1,"a"]`},
	}
	for _, tc := range cases {
		b, err := MarshalCanonical(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(b))
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	b, err := MarshalCanonical(String("<a> & </a>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(b))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" precomposed vs combining e + U+0301
	precomposed := String("é")
	decomposed := String("é")

	b1, err := MarshalCanonical(precomposed)
	require.NoError(t, err)
	b2, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2), "NFC normalization should unify compositions")
}

func TestConfig_Fingerprint_Stable(t *testing.T) {
	cfg := &Config{
		ID: "demo",
		Pages: []Page{{
			ID:    "main",
			Order: 1,
			Sections: []Section{{
				ID:    "s1",
				Order: 1,
				Components: []Component{
					{ID: "a", Type: "text", Order: 1, DependentIDs: []ElementID{"b"}},
					{ID: "b", Type: "text", Order: 2},
				},
			}},
		}},
	}
	fp1 := cfg.Fingerprint()
	fp2 := cfg.Fingerprint()
	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64, "sha256 hex")
}

func TestConfig_Fingerprint_ChangesWithStructure(t *testing.T) {
	base := &Config{
		ID: "demo",
		Pages: []Page{{
			ID: "main", Order: 1,
			Sections: []Section{{
				ID: "s1", Order: 1,
				Components: []Component{{ID: "a", Type: "text", Order: 1}},
			}},
		}},
	}
	fp := base.Fingerprint()

	changed := &Config{
		ID: "demo",
		Pages: []Page{{
			ID: "main", Order: 1,
			Sections: []Section{{
				ID: "s1", Order: 1,
				Components: []Component{{ID: "a", Type: "number", Order: 1}},
			}},
		}},
	}
	assert.NotEqual(t, fp, changed.Fingerprint(), "type change must change the fingerprint")
}

func TestBuildIndex_Lookups(t *testing.T) {
	cfg := &Config{
		ID: "demo",
		Pages: []Page{{
			ID: "main", Order: 1,
			Sections: []Section{{
				ID: "personal", Order: 1,
				Components: []Component{
					{ID: "name", Type: "text", Order: 1},
					{ID: "age", Type: "number", Order: 2},
				},
			}},
		}},
	}
	idx := cfg.BuildIndex()

	assert.Equal(t, 2, idx.Len())
	require.NotNil(t, idx.Component("name"))
	assert.Nil(t, idx.Component("missing"))

	id, ok := idx.ResolveAlias("personal.age")
	require.True(t, ok)
	assert.Equal(t, ElementID("age"), id)

	sec, ok := idx.SectionOf("name")
	require.True(t, ok)
	assert.Equal(t, "personal", sec)

	assert.Equal(t, []ElementID{"name", "age"}, idx.Elements())
}

func TestPage_SortSections(t *testing.T) {
	page := Page{
		ID: "main",
		Sections: []Section{
			{ID: "second", Order: 2, Components: []Component{
				{ID: "z", Order: 9},
				{ID: "y", Order: 1},
			}},
			{ID: "first", Order: 1},
		},
	}
	page.SortSections()

	assert.Equal(t, "first", page.Sections[0].ID)
	assert.Equal(t, "second", page.Sections[1].ID)
	assert.Equal(t, ElementID("y"), page.Sections[1].Components[0].ID)
}
