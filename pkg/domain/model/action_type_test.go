package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

func TestActionTypeRegistry(t *testing.T) {
	t.Run("builds from default catalog", func(t *testing.T) {
		registry, err := model.NewActionTypeRegistry(model.DefaultActionTypes())
		gt.NoError(t, err).Required()

		gt.Number(t, registry.Len()).Greater(0)

		at, ok := registry.Get("send_email_reply")
		gt.B(t, ok).True()
		gt.Value(t, at.DefaultLevel).Equal(types.AuthorityLevelNotify)

		_, ok = registry.Get("no_such_type")
		gt.B(t, ok).False()
	})

	t.Run("List is sorted by ID", func(t *testing.T) {
		registry, err := model.NewActionTypeRegistry(model.DefaultActionTypes())
		gt.NoError(t, err).Required()

		listed := registry.List()
		gt.Array(t, listed).Length(registry.Len())
		for i := 1; i < len(listed); i++ {
			gt.B(t, listed[i-1].ID < listed[i].ID).True()
		}
	})

	t.Run("rejects duplicate IDs", func(t *testing.T) {
		_, err := model.NewActionTypeRegistry([]model.ActionType{
			{ID: "x_type", Name: "X", Category: "c", DefaultLevel: types.AuthorityLevelAuto},
			{ID: "x_type", Name: "X again", Category: "c", DefaultLevel: types.AuthorityLevelNotify},
		})
		gt.Value(t, err).NotNil()
	})

	t.Run("rejects invalid default level", func(t *testing.T) {
		_, err := model.NewActionTypeRegistry([]model.ActionType{
			{ID: "x_type", Name: "X", Category: "c", DefaultLevel: "sometimes"},
		})
		gt.Value(t, err).NotNil()
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		registry, err := model.NewActionTypeRegistry(model.DefaultActionTypes())
		gt.NoError(t, err).Required()

		at1, _ := registry.Get("create_reminder")
		at1.Name = "mutated"

		at2, _ := registry.Get("create_reminder")
		gt.Value(t, at2.Name).NotEqual("mutated")
	})
}

func TestDefaultActionTypes_AllValid(t *testing.T) {
	for _, at := range model.DefaultActionTypes() {
		gt.NoError(t, at.Validate())
	}
}
