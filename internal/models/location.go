package models

// DiningLocations is the campus dining list offered to clients. The API
// accepts any non-empty location string; this list is informational.
var DiningLocations = []string{
	"C9/C10 Dining Hall",
	"Oakes Cafe",
	"Cowell/Stevenson Dining Hall",
	"Crown/Merrill Dining Hall",
	"Porter/Kresge Dining Hall",
	"Other",
}
