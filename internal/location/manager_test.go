package location

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/tagdeck/internal/notify"
)

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) ShowNotification(message string, _ notify.Level, _ bool) {
	r.messages = append(r.messages, message)
}

func newTestManager() (*Manager, *recordingNotifier, *[]*Location) {
	n := &recordingNotifier{}
	m := NewManager(n, false)
	var seen []*Location
	m.Subscribe(func(loc *Location) { seen = append(seen, loc) })
	return m, n, &seen
}

func TestAddAndOpen(t *testing.T) {
	m, _, seen := newTestManager()

	added := m.Add(Location{Name: "Docs", Path: "/docs"}, true, -1)
	require.NotEmpty(t, added.UUID)
	assert.Equal(t, TypeLocal, added.Type)

	cur := m.Current()
	require.NotNil(t, cur)
	assert.Equal(t, added.UUID, cur.UUID)
	require.Len(t, *seen, 1)
	assert.Equal(t, "/docs", (*seen)[0].Path)
}

func TestAddAtPosition(t *testing.T) {
	m, _, _ := newTestManager()
	m.Add(Location{UUID: "a"}, false, -1)
	m.Add(Location{UUID: "b"}, false, -1)
	m.Add(Location{UUID: "c"}, false, 1)

	assert.Equal(t, 0, m.Position("a"))
	assert.Equal(t, 1, m.Position("c"))
	assert.Equal(t, 2, m.Position("b"))
	assert.Equal(t, -1, m.Position("missing"))
}

func TestChangeToSameLocationIsNoop(t *testing.T) {
	m, _, seen := newTestManager()
	loc := m.Add(Location{UUID: "a"}, true, -1)

	m.Change(loc)
	assert.Len(t, *seen, 1)
}

func TestCloseOnlyClosesCurrent(t *testing.T) {
	m, _, seen := newTestManager()
	m.Add(Location{UUID: "a"}, true, -1)

	m.Close("other")
	assert.NotNil(t, m.Current())

	m.Close("a")
	assert.Nil(t, m.Current())
	require.Len(t, *seen, 2)
	assert.Nil(t, (*seen)[1])
}

func TestCloseAllAlwaysEmits(t *testing.T) {
	m, _, seen := newTestManager()
	m.CloseAll()
	assert.Nil(t, m.Current())
	assert.Len(t, *seen, 1)
}

func TestOpenCloudLocationNotifies(t *testing.T) {
	m, n, _ := newTestManager()
	m.Add(Location{UUID: "s3", Type: TypeCloud}, false, -1)

	require.True(t, m.OpenByID("s3", false))
	assert.Equal(t, []string{"Connected to object store"}, n.messages)
	assert.False(t, m.OpenByID("missing", false))
}

func TestEditWithNewUUID(t *testing.T) {
	m, _, seen := newTestManager()
	m.Add(Location{UUID: "old", Name: "Old"}, false, -1)

	require.NoError(t, m.Edit(Location{UUID: "old", NewUUID: "new", Name: "New"}, true))

	_, found := m.Find("old")
	assert.False(t, found)
	loc, found := m.Find("new")
	require.True(t, found)
	assert.Equal(t, "New", loc.Name)
	assert.Empty(t, loc.NewUUID)
	assert.Equal(t, "new", m.Current().UUID)
	assert.Len(t, *seen, 1)

	assert.Error(t, m.Edit(Location{UUID: "missing"}, false))
}

func TestEditKeepsOtherCurrent(t *testing.T) {
	m, _, _ := newTestManager()
	m.Add(Location{UUID: "a"}, true, -1)
	m.Add(Location{UUID: "b"}, false, -1)

	require.NoError(t, m.Edit(Location{UUID: "b", Name: "renamed"}, false))
	assert.Equal(t, "a", m.Current().UUID)
}

func TestAddManyOpensLast(t *testing.T) {
	m, _, _ := newTestManager()
	m.Add(Location{UUID: "a", Name: "before"}, false, -1)

	m.AddMany([]Location{{UUID: "a", Name: "after"}, {UUID: "b"}}, true)

	a, _ := m.Find("a")
	assert.Equal(t, "after", a.Name)
	assert.Len(t, m.List(), 2)
	assert.Equal(t, "b", m.Current().UUID)
}

func TestRemoveClosesCurrent(t *testing.T) {
	m, _, _ := newTestManager()
	m.Add(Location{UUID: "a"}, true, -1)

	assert.True(t, m.Remove("a"))
	assert.Nil(t, m.Current())
	assert.False(t, m.Remove("a"))
}

func TestPersistTagsOverride(t *testing.T) {
	m := NewManager(nil, true)
	assert.True(t, m.PersistTagsInSidecarFile())

	off := false
	m.Add(Location{UUID: "a", PersistTagsInSidecarFile: &off, IsReadOnly: true}, true, -1)
	assert.False(t, m.PersistTagsInSidecarFile())
	assert.True(t, m.ReadOnlyMode())
}

func TestSelected(t *testing.T) {
	m := NewManager(nil, false)
	assert.Nil(t, m.Selected())
	m.SetSelected(&Location{UUID: "x"})
	assert.Equal(t, "x", m.Selected().UUID)
}

func TestOpenDefault(t *testing.T) {
	m := NewManager(nil, false)
	assert.False(t, m.OpenDefault())

	m.Add(Location{UUID: "a"}, false, -1)
	m.Add(Location{UUID: "b", IsDefault: true}, false, -1)
	assert.True(t, m.OpenDefault())
	assert.Equal(t, "b", m.Current().UUID)
}

func TestLocationPath(t *testing.T) {
	p, err := LocationPath(&Location{Path: "/a", Paths: []string{"/b"}})
	require.NoError(t, err)
	assert.Equal(t, "/b", p)

	p, err = LocationPath(&Location{Path: "./data"})
	require.NoError(t, err)
	wd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(wd, "data"), p)

	p, err = LocationPath(&Location{Type: TypeCloud, Path: "./bucket"})
	require.NoError(t, err)
	assert.Equal(t, "./bucket", p)

	p, err = LocationPath(nil)
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestLoadFile(t *testing.T) {
	locs, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Nil(t, locs)

	file := filepath.Join(t.TempDir(), "locations.yaml")
	data := `locations:
  - name: Photos
    path: /srv/photos
    watch_for_changes: true
    default: true
    ignore_patterns: ["*.tmp"]
  - uuid: fixed
    name: Archive
    type: cloud
    path: /archive
    bucket: archive
    max_loops: 100
`
	require.NoError(t, os.WriteFile(file, []byte(data), 0644))

	locs, err = LoadFile(file)
	require.NoError(t, err)
	require.Len(t, locs, 2)

	assert.NotEmpty(t, locs[0].UUID)
	assert.Equal(t, TypeLocal, locs[0].Type)
	assert.True(t, locs[0].WatchForChanges)
	assert.True(t, locs[0].IsDefault)
	assert.Equal(t, []string{"*.tmp"}, locs[0].IgnorePatternPaths)

	assert.Equal(t, "fixed", locs[1].UUID)
	assert.True(t, locs[1].IsCloud())
	assert.Equal(t, 100, locs[1].MaxLoops)
	assert.Equal(t, "archive", locs[1].Bucket)
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := &Location{Paths: []string{"/a"}}
	c := orig.Clone()
	c.Paths[0] = "/b"
	assert.Equal(t, "/a", orig.Paths[0])
	assert.Nil(t, (*Location)(nil).Clone())
}
