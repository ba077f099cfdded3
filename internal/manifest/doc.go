// Package manifest defines the agentskills project manifest (.agent-skills.yaml):
// the repositories to fetch skills from, the revision each one is pinned to,
// and the agents each skill is linked into.
//
// A Config returned by Parse or Load has passed both the embedded JSON schema
// (document shape) and Validate (business rules: relative paths, unique
// repository locators, manifest-wide unique skill names). Code that needs to
// change a manifest copies it into a Builder, mutates the builder, and calls
// Build, which re-validates before handing back a new Config.
package manifest
