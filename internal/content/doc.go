// Package content defines the declarative collection descriptors that drive
// the CMS: each website section (news, events, gallery, staff, home page
// blocks) is a Collection with a field schema, and its entries are generic
// Records stored in a single SQLite table. Panels and API handlers are both
// generated over these descriptors rather than hand-written per section.
package content
