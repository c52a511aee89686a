// Package tagging drives per-image traversal of a project's tag groups.
//
// One group is active at a time. Assigning a tag may auto-advance the active
// group when the assignment crosses the group's completion threshold and the
// behaviour settings allow it. Navigation across the first and last group
// rolls over to the neighboring image.
package tagging
