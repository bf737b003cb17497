// Package model defines the documents owned by a user: tasks, weekly and
// daily goals, and LinkedIn posts.
//
// JSON and BSON field names are camelCase with the identifier in "_id", so
// stored documents and API payloads share one shape. Inputs and patches are
// the wire forms for create and update. They trim and validate their fields
// and report problems as *ValidationError.
package model
