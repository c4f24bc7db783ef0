// Package models provides the configuration entities of the KIM Interface
// and the JSON documents they are persisted as.
//
// # Hierarchy
//
// A [Model] (3-character production model code) owns ordered base-information
// headers and its [Machine] entries. A Machine owns ordered measurement names
// and its [MappingConfiguration] entries. A MappingConfiguration is an ordered
// list of [FieldMapping] values, each pointing one header or measurement at a
// spreadsheet sheet/cluster cell.
//
// # Documents
//
// The hierarchy is stored as one [RootDocument] listing every Model and Machine
// summary, plus one [MachineDocument] per Machine holding its mappings.
// Decoding is tolerant: missing arrays become empty, legacy keys such as
// "model_name" are accepted, and numeric fields may be strings.
//
//	var root models.RootDocument
//	if err := json.Unmarshal(data, &root); err != nil {
//	    return err
//	}
//	cat := models.Assemble(&root, machineDocs)
//
// # Resolving references
//
// Callers that hold either an entity or just its identifier wrap it in a
// [Ref] and call [Resolve] against the current scope:
//
//	m, err := models.Resolve(models.ByKey[models.Model]("AB1"), cat.Models)
//
// Entities are plain values; use the Clone methods before mutating anything
// obtained from a shared document.
package models
