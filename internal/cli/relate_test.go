package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagrel/internal/model"
)

func TestChildAdd(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("child", "add", "Cat", "Animal")
	assert.Equal(t, "ok add_child(Cat, Animal) [seq 1, op-1]\n", out)

	out = env.mustRun("relations")
	assert.Equal(t, "Animal_auto: Animal\nCat_auto: Cat < Animal_auto\n", out)
}

func TestSynonymAddMergesAutoGroup(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("child", "add", "Cat", "Animal")

	out := env.mustRun("synonym", "add", "Cat", "CatGroup")
	assert.Equal(t, "ok add_synonym(Cat, CatGroup) [seq 2, op-2]\n", out)

	out = env.mustRun("relations", "Cat")
	assert.Equal(t, "CatGroup: Cat < Animal_auto\n", out)
}

func TestRelationsEndToEnd(t *testing.T) {
	env := newCLIEnv(t)
	env.seedAnimals()

	out := env.mustRun("relations", "Pussy")
	assert.Equal(t, "CatGroup: Cat, Cat2, Pussy < Animal_auto < AnimalBase_auto\n", out)

	out = env.mustRun("relations")
	assert.Contains(t, out, "AnimalBase_auto: AnimalBase\n")
	assert.Contains(t, out, "Animal_auto: Animal < AnimalBase_auto\n")
	assert.Contains(t, out, "Dog_auto: Dog < Animal_auto < AnimalBase_auto\n")
	assert.Contains(t, out, "CatGroup: Cat, Cat2, Pussy < Animal_auto < AnimalBase_auto\n")
}

func TestRelationsJSON(t *testing.T) {
	env := newCLIEnv(t)
	env.seedAnimals()

	out := env.mustRun("relations", "Dog", "--format", "json")

	var resp struct {
		Status string                   `json:"status"`
		Data   []model.GroupDescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Dog_auto", resp.Data[0].GroupName)
	assert.Equal(t, []string{"Dog"}, resp.Data[0].Tags)
	assert.Equal(t, []string{"Animal_auto", "AnimalBase_auto"}, resp.Data[0].Ancestors)
}

func TestRelationsUngroupedTag(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("tag", "add", "Plant")

	out := env.mustRun("relations", "Plant")
	assert.Equal(t, "No groups.\n", out)
}

func TestRelationsEmptyDatabase(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("relations")
	assert.Equal(t, "No groups.\n", out)
}

func TestRejectedOperations(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"second parent", []string{"child", "add", "Pussy", "Plant"}, "different_parent"},
		{"synonyms as child", []string{"child", "add", "Cat", "Pussy"}, "already_synonyms"},
		{"already child", []string{"child", "add", "Dog", "Animal"}, "already_child"},
		{"cycle", []string{"child", "add", "AnimalBase", "Cat"}, "cycle"},
		{"different group", []string{"synonym", "add", "Cat", "Felines"}, "different_group"},
		{"reserved name", []string{"synonym", "add", "Plant", "Plant_auto"}, "reserved_name"},
		{"unknown group", []string{"synonym", "remove", "Cat", "NoSuchGroup"}, "group_not_found"},
		{"tag not in group", []string{"synonym", "remove", "Dog", "CatGroup"}, "tag_not_in_group"},
		{"no relation", []string{"child", "remove", "Dog", "AnimalBase"}, "no_such_relation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			env.seedAnimals()

			out, _, err := env.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestRejectedOperationJSON(t *testing.T) {
	env := newCLIEnv(t)
	env.seedAnimals()

	out, _, err := env.run("child", "add", "Pussy", "Plant", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "different_parent", resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, details["ok"])
	assert.Equal(t, float64(8), details["seq"])
}

func TestRemoveRestoresIndependence(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("child", "add", "Cat", "Animal")

	out := env.mustRun("child", "remove", "Cat", "Animal")
	assert.Equal(t, "ok remove_child(Cat, Animal) [seq 2, op-2]\n", out)

	out = env.mustRun("relations", "Cat")
	assert.Equal(t, "Cat_auto: Cat\n", out)

	env.mustRun("synonym", "add", "Dog", "Dogs")
	env.mustRun("synonym", "remove", "Dog", "Dogs")
	out = env.mustRun("relations", "Dog")
	assert.Equal(t, "No groups.\n", out)
}

func TestOpCommandArgCount(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("child", "add", "Cat")
	require.Error(t, err)
}
