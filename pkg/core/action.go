package core

// ActionType is the tag carried by every action on the wire.
type ActionType string

const (
	ActionInitAll          ActionType = "INIT_ALL"
	ActionAddRepository    ActionType = "ADD_REPOSITORY"
	ActionRemoveRepository ActionType = "REMOVE_REPOSITORY"
	ActionAddFolder        ActionType = "ADD_FOLDER"
	ActionEditFolder       ActionType = "EDIT_FOLDER"
	ActionRemoveFolder     ActionType = "REMOVE_FOLDER"
	ActionAddNote          ActionType = "ADD_NOTE"
	ActionSaveNote         ActionType = "SAVE_NOTE"
	ActionStarNote         ActionType = "STAR_NOTE"
	ActionUnstarNote       ActionType = "UNSTAR_NOTE"

	ActionSetSideNavFolded ActionType = "SET_IS_SIDENAV_FOLDED"
	ActionSetZoom          ActionType = "SET_ZOOM"
	ActionSetListWidth     ActionType = "SET_LIST_WIDTH"
	ActionSetConfig        ActionType = "SET_CONFIG"
)

// ActionTypes lists every recognised tag, repository actions first.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionInitAll,
		ActionAddRepository,
		ActionRemoveRepository,
		ActionAddFolder,
		ActionEditFolder,
		ActionRemoveFolder,
		ActionAddNote,
		ActionSaveNote,
		ActionStarNote,
		ActionUnstarNote,
		ActionSetSideNavFolded,
		ActionSetZoom,
		ActionSetListWidth,
		ActionSetConfig,
	}
}

// Action is a state-transition request. The set of implementations is closed:
// only the types in this file satisfy it.
type Action interface {
	Type() ActionType
	action()
}

// InitAll replaces the whole repository collection.
type InitAll struct {
	Data Repositories `json:"data"`
}

// AddRepository appends a copy of Repository with the back-references of its
// notes set. Key uniqueness is the caller's concern.
type AddRepository struct {
	Repository *Repository `json:"repository"`
}

// RemoveRepository removes the repository with Key.
type RemoveRepository struct {
	Key string `json:"key"`
}

// AddFolder upserts Folder into the repository with Key.
type AddFolder struct {
	Key    string `json:"key"`
	Folder Folder `json:"folder"`
}

// EditFolder behaves exactly like AddFolder.
type EditFolder struct {
	Key    string `json:"key"`
	Folder Folder `json:"folder"`
}

// RemoveFolder removes folder Folder from repository Repository.
type RemoveFolder struct {
	Repository string `json:"repository"`
	Folder     string `json:"folder"`
}

// AddNote appends Note to repository Repository.
type AddNote struct {
	Repository string `json:"repository"`
	Note       Note   `json:"note"`
}

// SaveNote stamps Note.UpdatedAt and upserts it into repository Repository.
// The stamp never goes backwards: a note already dated after the current
// time (incoming or stored) keeps its later stamp.
type SaveNote struct {
	Repository string `json:"repository"`
	Note       Note   `json:"note"`
}

// StarNote stars note Note of repository Repository if the note exists.
type StarNote struct {
	Repository string `json:"repository"`
	Note       string `json:"note"`
}

// UnstarNote removes Note from the starred set of repository Repository.
type UnstarNote struct {
	Repository string `json:"repository"`
	Note       string `json:"note"`
}

// SetSideNavFolded sets Config.IsSideNavFolded.
type SetSideNavFolded struct {
	IsFolded bool `json:"isFolded"`
}

// SetZoom sets Config.Zoom.
type SetZoom struct {
	Zoom float64 `json:"zoom"`
}

// SetListWidth sets Config.ListWidth.
type SetListWidth struct {
	ListWidth int `json:"listWidth"`
}

// SetConfig merges Config into the current settings.
type SetConfig struct {
	Config ConfigPatch `json:"config"`
}

// Unknown carries an unrecognised tag. Every reducer ignores it.
type Unknown struct {
	Tag string `json:"-"`
}

func (InitAll) Type() ActionType          { return ActionInitAll }
func (AddRepository) Type() ActionType    { return ActionAddRepository }
func (RemoveRepository) Type() ActionType { return ActionRemoveRepository }
func (AddFolder) Type() ActionType        { return ActionAddFolder }
func (EditFolder) Type() ActionType       { return ActionEditFolder }
func (RemoveFolder) Type() ActionType     { return ActionRemoveFolder }
func (AddNote) Type() ActionType          { return ActionAddNote }
func (SaveNote) Type() ActionType         { return ActionSaveNote }
func (StarNote) Type() ActionType         { return ActionStarNote }
func (UnstarNote) Type() ActionType       { return ActionUnstarNote }
func (SetSideNavFolded) Type() ActionType { return ActionSetSideNavFolded }
func (SetZoom) Type() ActionType          { return ActionSetZoom }
func (SetListWidth) Type() ActionType     { return ActionSetListWidth }
func (SetConfig) Type() ActionType        { return ActionSetConfig }
func (u Unknown) Type() ActionType        { return ActionType(u.Tag) }

func (InitAll) action()          {}
func (AddRepository) action()    {}
func (RemoveRepository) action() {}
func (AddFolder) action()        {}
func (EditFolder) action()       {}
func (RemoveFolder) action()     {}
func (AddNote) action()          {}
func (SaveNote) action()         {}
func (StarNote) action()         {}
func (UnstarNote) action()       {}
func (SetSideNavFolded) action() {}
func (SetZoom) action()          {}
func (SetListWidth) action()     {}
func (SetConfig) action()        {}
func (Unknown) action()          {}
