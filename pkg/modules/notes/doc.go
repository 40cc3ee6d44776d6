// Package notes is a built-in module that stores personal notes through the
// shared database engine.
//
// Importing the package publishes the "notes" factory in the default module
// catalog. Registration creates the notes table if needed and mounts:
//
//	GET    /notes?limit=&offset=
//	POST   /notes
//	GET    /notes/{id}
//	PUT    /notes/{id}
//	DELETE /notes/{id}
package notes
