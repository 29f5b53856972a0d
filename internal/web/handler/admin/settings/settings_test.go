package settings

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/db/controller/settingdef"
	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/web/handler/handlertest"
)

func setup(t *testing.T) (*handlertest.Harness, *handlertest.Client) {
	t.Helper()

	h := handlertest.New(t, &Service{})
	root := dbtest.User(t, h.DB, "root", models.RoleAdmin)

	return h, h.LoginAs(root.ID)
}

func TestCreate(t *testing.T) {
	h, cl := setup(t)

	r := cl.Get(Path)
	assert.Equal(t, fiber.StatusOK, r.Status)
	assert.Contains(t, r.Body, "Empty: "+EmptyText)

	r = cl.Post(Path, url.Values{"key": {""}, "label": {"x"}, "type": {"color"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, r.Body, "Field key: This field is required.")
	assert.Contains(t, r.Body, "Field type: Must be one of: boolean number string.")

	r = cl.Post(Path, url.Values{"key": {"page size"}, "label": {"Page size"}, "type": {"number"}, "default_value": {"ten"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, r.Body, "Field default_value: value must be a whole number")

	r = cl.Post(Path, url.Values{"key": {"page size"}, "label": {"Page size"}, "type": {"number"}, "default_value": {"10"}})
	require.Equal(t, fiber.StatusSeeOther, r.Status, r.Body)
	assert.Equal(t, Path, r.Location)
	assert.Contains(t, cl.Follow(r).Body, "Flash: "+AddedText)

	r = cl.Post(Path, url.Values{"key": {"PageSize"}, "label": {"Again"}, "type": {"number"}})
	assert.Equal(t, fiber.StatusConflict, r.Status)
	assert.Contains(t, r.Body, "Field key: "+settingdef.ErrKeyAlreadyExists.Error())

	defs, err := settingdef.List(h.DB)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "pageSize", defs[0].Key)
	assert.Equal(t, "10", defs[0].DefaultValue)
}

func TestUpdateNeedsConfirmation(t *testing.T) {
	h, cl := setup(t)

	def, err := settingdef.Create(h.DB, settingdef.Input{Key: "darkMode", Label: "Dark mode", Type: "boolean"})
	require.NoError(t, err)

	form := url.Values{"key": {"theme dark"}, "label": {"Dark theme"}, "type": {"boolean"}, "default_value": {"true"}}

	r := cl.Post(DefPath(def.ID), form)
	assert.Equal(t, fiber.StatusOK, r.Status)
	assert.Contains(t, r.Body, "Question: "+UpdateQuestion)

	unchanged, err := settingdef.GetByID(h.DB, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "darkMode", unchanged.Key)

	form.Set("confirm", "yes")

	r = cl.Post(DefPath(def.ID), form)
	require.Equal(t, fiber.StatusSeeOther, r.Status, r.Body)
	assert.Contains(t, cl.Follow(r).Body, "Flash: "+UpdatedText)

	updated, err := settingdef.GetByID(h.DB, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "themeDark", updated.Key)
	assert.Equal(t, "true", updated.DefaultValue)

	assert.Equal(t, fiber.StatusNotFound, cl.Get(DefPath(4242)).Status)
}

func TestDelete(t *testing.T) {
	h, cl := setup(t)

	def, err := settingdef.Create(h.DB, settingdef.Input{Key: "darkMode", Label: "Dark mode", Type: "boolean"})
	require.NoError(t, err)

	r := cl.Get(DefPath(def.ID) + "/delete")
	assert.Contains(t, r.Body, "Question: "+DeleteQuestion)

	r = cl.Post(DefPath(def.ID)+"/delete", url.Values{})
	assert.Equal(t, DefPath(def.ID)+"/delete", r.Location)

	r = cl.Post(DefPath(def.ID)+"/delete", url.Values{"confirm": {"yes"}})
	require.Equal(t, fiber.StatusSeeOther, r.Status)
	assert.Contains(t, cl.Follow(r).Body, "Flash: "+RemovedText)

	_, err = settingdef.GetByID(h.DB, def.ID)
	assert.ErrorIs(t, err, settingdef.ErrSettingNotFound)
}

func TestNormalizeKey(t *testing.T) {
	_, cl := setup(t)

	r := cl.Post(NormalizeKeyPath, url.Values{"key": {"Email me_weekly"}})
	require.Equal(t, fiber.StatusOK, r.Status)

	var out struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.Body), &out))
	assert.Equal(t, "emailMeWeekly", out.Key)
}
