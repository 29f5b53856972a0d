// Package uniuri generates the random ids of documents.
package uniuri
