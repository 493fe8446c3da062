// Package catalog loads form definitions from JSON or YAML files so metadata
// providers can ship forms as data. A catalog file holds either a single
// form (top-level `entry` and `metadata`) or a list under `forms`, and may
// carry the parameter dependencies and validation rules that belong with
// those forms.
//
// Register feeds the forms into a registry; dependencies and rules are left
// to the composition root, which owns the resolver and the rule store.
package catalog
