package store

import (
	"github.com/kim-interface/kimm/internal/textfix"
	"github.com/kim-interface/kimm/pkg/models"
)

// RepairMappings repairs the item of every Field-Mapping in place.
func RepairMappings(cfgs []models.MappingConfiguration) {
	for i := range cfgs {
		for j := range cfgs[i].Configuration {
			cfgs[i].Configuration[j].Item = textfix.Repair(cfgs[i].Configuration[j].Item)
		}
	}
}

// repairRoot repairs the headers and measurements of doc in place. Model and
// Machine names are keys on disk and are left alone.
func repairRoot(doc *models.RootDocument) {
	for i := range doc.Models {
		doc.Models[i].BaseInformation = textfix.RepairAll(doc.Models[i].BaseInformation)
	}
	for i := range doc.Machines {
		doc.Machines[i].Measurements = textfix.RepairAll(doc.Machines[i].Measurements)
	}
}

// RepairModel repairs the headers, measurements and mapped items of an
// assembled Model in place.
func RepairModel(m *models.Model) {
	m.BaseInformation = textfix.RepairAll(m.BaseInformation)
	for j := range m.Machines {
		mc := &m.Machines[j]
		mc.Measurements = textfix.RepairAll(mc.Measurements)
		RepairMappings(mc.MappingConfigurations)
	}
}

func repairCatalogue(cat *models.Catalogue) {
	for i := range cat.Models {
		RepairModel(&cat.Models[i])
	}
}
