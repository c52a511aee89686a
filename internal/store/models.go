package store

import "time"

// Project is a labeling project: a name, its directory roots, and bookkeeping
// timestamps. Directories are stored as a JSON array in canonical path form.
type Project struct {
	ID          int64
	Name        string
	Directories []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int
}

// Image is a file tracked by a project. SourcePath is canonical (absolute,
// forward slashes) and unique within the project.
type Image struct {
	ID         int64
	ProjectID  int64
	SourcePath string
	AddedAt    time.Time
}

// Score is an image's assigned score label. An absent row means unscored.
// Categories carries the legacy JSON-embedded category list; current
// assignments live in the image_categories join table.
type Score struct {
	ImageID    int64
	ProjectID  int64
	Score      string
	Categories []string
	UpdatedAt  time.Time
}

// TagGroup is an ordered bucket of tags with cardinality rules and an
// optional activation condition. DisplayOrder is gap-free within the project.
type TagGroup struct {
	ID                int64
	ProjectID         int64
	Name              string
	IsRequired        bool
	AllowMultiple     bool
	MinTags           int
	PreventAutoScroll bool
	Condition         string
	DisplayOrder      int

	// Tags are eagerly loaded in display order by ListTagGroups.
	Tags []*Tag
}

// Tag belongs to a tag group; DisplayOrder is contiguous from 0 within it.
type Tag struct {
	ID           int64
	GroupID      int64
	Name         string
	DisplayOrder int
}

// Category is a freeform project-level label used for export rule routing.
type Category struct {
	ID           int64
	ProjectID    int64
	Name         string
	DisplayOrder int
}

// ExportTagRule appends caption tags at export time when its condition holds.
// It never mutates stored image tags.
type ExportTagRule struct {
	ID        int64
	ProjectID int64
	Name      string
	Condition string
	TagsToAdd []string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImageTagDetail is the caption-ordering projection of one assigned tag.
type ImageTagDetail struct {
	TagID             int64
	GroupID           int64
	TagName           string
	TagDisplayOrder   int
	GroupDisplayOrder int
}

// UnfinishedGroup locates the jump-to-work target: the image and group the
// latest-unfinished query resolved to.
type UnfinishedGroup struct {
	ImageID           int64
	GroupID           int64
	GroupDisplayOrder int
}
