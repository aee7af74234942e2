// internal/discovery/vendors.go
package discovery

import (
	"strings"

	"printer-service/internal/model"
)

// VendorDatabase is the allow-list of USB vendors that make thermal printers
// or the USB bridges they ship with
type VendorDatabase struct {
	vendors map[uint16]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[uint16]string
}

// NewVendorDatabase creates and initializes the vendor database
func NewVendorDatabase() *VendorDatabase {
	db := &VendorDatabase{
		vendors: make(map[uint16]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

func (db *VendorDatabase) initializeDatabase() {
	db.AddVendor(0x04B8, "Seiko Epson Corporation")
	db.AddProduct(0x04B8, 0x0202, "TM-T88IV")
	db.AddProduct(0x04B8, 0x0203, "TM-T88V")
	db.AddProduct(0x04B8, 0x0214, "TM-T88VI")
	db.AddProduct(0x04B8, 0x0215, "TM-T20III")
	db.AddProduct(0x04B8, 0x0216, "TM-T82III")
	db.AddProduct(0x04B8, 0x0217, "TM-M30")

	db.AddVendor(0x0519, "Star Micronics Co., Ltd.")
	db.AddProduct(0x0519, 0x0001, "TSP143III")
	db.AddProduct(0x0519, 0x0002, "TSP143IIIU")
	db.AddProduct(0x0519, 0x0003, "TSP654II")

	db.AddVendor(0x1504, "BIXOLON Co., Ltd.")
	db.AddProduct(0x1504, 0x0006, "SRP-330II")
	db.AddProduct(0x1504, 0x0007, "SRP-350III")

	db.AddVendor(0x1D90, "Citizen Systems Japan Co., Ltd.")
	db.AddVendor(0x2730, "Citizen (CBM)")
	db.AddVendor(0x0DD4, "Custom Engineering S.p.A.")
	db.AddVendor(0x154F, "SNBC")
	db.AddVendor(0x20D1, "Rongta / Elgin")
	db.AddVendor(0x6868, "Zjiang / Gainscha")
	db.AddVendor(0x0416, "Winbond (Xprinter, Gprinter)")
	db.AddVendor(0x0FE6, "ICS Advent (POS-58 clones)")
	db.AddVendor(0x28E9, "GigaDevice")
	db.AddVendor(0x0483, "STMicroelectronics")
	db.AddVendor(0x1FC9, "NXP Semiconductors")
	db.AddVendor(0x1CBE, "Luminary Micro / Texas Instruments")
	db.AddVendor(0x0525, "Netchip Technology")

	// USB-serial bridges found inside serial printers
	db.AddVendor(0x1A86, "QinHeng Electronics")
	db.AddVendor(0x067B, "Prolific Technology")
}

// IsKnownVendor checks if a vendor ID is in the database
func (db *VendorDatabase) IsKnownVendor(vendorID uint16) bool {
	_, exists := db.vendors[vendorID]
	return exists
}

// GetVendorInfo retrieves vendor information
func (db *VendorDatabase) GetVendorInfo(vendorID uint16) *VendorInfo {
	return db.vendors[vendorID]
}

// ProductName returns the known model name, if any
func (vi *VendorInfo) ProductName(productID uint16) string {
	return vi.products[productID]
}

// VendorCount returns the number of known vendors
func (db *VendorDatabase) VendorCount() int {
	return len(db.vendors)
}

// AddVendor adds a new vendor to the database
func (db *VendorDatabase) AddVendor(vendorID uint16, name string) {
	if _, exists := db.vendors[vendorID]; exists {
		return
	}
	db.vendors[vendorID] = &VendorInfo{Name: name, products: make(map[uint16]string)}
}

// AddProduct adds a new product to an existing vendor
func (db *VendorDatabase) AddProduct(vendorID, productID uint16, modelName string) {
	if vendor, exists := db.vendors[vendorID]; exists {
		vendor.products[productID] = modelName
	}
}

// IsPrinterCandidate reports whether a device should be offered to the
// operator when connecting. Serial ports without USB identity cannot be
// classified and are always offered.
func (db *VendorDatabase) IsPrinterCandidate(device model.PrinterDevice) bool {
	if device.VendorID == nil {
		return device.TransportKind == model.TransportSerial
	}
	return db.IsKnownVendor(*device.VendorID) || LooksLikePrinter(device.Manufacturer, device.Product)
}

var printerKeywords = []string{"printer", "pos", "thermal"}

// LooksLikePrinter matches printer-ish words in the descriptor strings
func LooksLikePrinter(manufacturer, product string) bool {
	text := strings.ToLower(manufacturer + " " + product)
	for _, keyword := range printerKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
