package service

import (
	"errors"
	"strings"

	"github.com/danielforeroj/alwaysonduty/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResolveCustomer maps (tenant, channel, external id) to a customer,
// creating the customer and its channel identity together when the
// identity is new. Both inserts run in one transaction so a failure
// cannot leave an orphaned customer with no identity mapping.
func ResolveCustomer(db *gorm.DB, tenantID uuid.UUID, channel, externalID string) (*model.Customer, error) {
	var identity model.ChannelIdentity
	err := db.Where("tenant_id = ? AND channel = ? AND external_id = ?", tenantID, channel, externalID).
		First(&identity).Error
	if err == nil {
		var customer model.Customer
		if err := db.First(&customer, "id = ?", identity.CustomerID).Error; err != nil {
			return nil, err
		}
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer := &model.Customer{TenantID: tenantID}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(customer).Error; err != nil {
			return err
		}
		identity = model.ChannelIdentity{
			TenantID:   tenantID,
			CustomerID: customer.ID,
			Channel:    channel,
			ExternalID: externalID,
		}
		return tx.Create(&identity).Error
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// UpsertCustomerByEmail finds the tenant's customer by email and updates
// any newly supplied contact fields, or creates the record.
func UpsertCustomerByEmail(db *gorm.DB, tenantID uuid.UUID, in VerificationInput) (*model.Customer, error) {
	email := NormalizeEmail(in.Email)

	var customer model.Customer
	err := db.Where("tenant_id = ? AND email = ?", tenantID, email).First(&customer).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err == nil {
		updated := false
		if in.FirstName != "" && (customer.FirstName == nil || *customer.FirstName != in.FirstName) {
			customer.FirstName = &in.FirstName
			updated = true
		}
		if in.LastName != "" && (customer.LastName == nil || *customer.LastName != in.LastName) {
			customer.LastName = &in.LastName
			updated = true
		}
		if in.Phone != "" && (customer.PrimaryPhone == nil || *customer.PrimaryPhone != in.Phone) {
			customer.PrimaryPhone = &in.Phone
			updated = true
		}
		if in.Source != "" && (customer.Source == nil || *customer.Source != in.Source) {
			customer.Source = &in.Source
			updated = true
		}
		if updated {
			if full := fullName(customer.FirstName, customer.LastName); full != "" {
				customer.FullName = &full
			}
			if err := db.Save(&customer).Error; err != nil {
				return nil, err
			}
		}
		return &customer, nil
	}

	customer = model.Customer{TenantID: tenantID, Email: &email}
	if in.FirstName != "" {
		customer.FirstName = &in.FirstName
	}
	if in.LastName != "" {
		customer.LastName = &in.LastName
	}
	if in.Phone != "" {
		customer.PrimaryPhone = &in.Phone
	}
	if in.Source != "" {
		customer.Source = &in.Source
	}
	if full := fullName(customer.FirstName, customer.LastName); full != "" {
		customer.FullName = &full
	}
	if err := db.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func fullName(first, last *string) string {
	parts := make([]string, 0, 2)
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	return strings.Join(parts, " ")
}

// ListCustomers returns a page of the tenant's customers, newest first
func ListCustomers(db *gorm.DB, tenantID uuid.UUID, page, pageSize int) ([]model.Customer, error) {
	var customers []model.Customer
	err := db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&customers).Error
	return customers, err
}

// GetCustomer fetches a customer within the tenant boundary
func GetCustomer(db *gorm.DB, tenantID, customerID uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	err := db.Where("tenant_id = ? AND id = ?", tenantID, customerID).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
