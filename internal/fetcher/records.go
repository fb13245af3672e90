package fetcher

import (
	"github.com/rotisserie/eris"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

// ContactsFromTable maps a contact staging table to typed records. Missing
// name columns are structural errors; everything else degrades to empty
// cells. "Company" is accepted as an alias for "Company Name".
func ContactsFromTable(t *Table) ([]model.ContactRecord, error) {
	if _, ok := t.Column("First Name"); !ok {
		return nil, eris.New("fetcher: contact table missing required column First Name")
	}
	if _, ok := t.Column("Last Name"); !ok {
		return nil, eris.New("fetcher: contact table missing required column Last Name")
	}

	companyCol := "Company Name"
	if _, ok := t.Column(companyCol); !ok {
		companyCol = "Company"
	}

	contacts := make([]model.ContactRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		contacts = append(contacts, model.ContactRecord{
			FirstName:     t.Cell(row, "First Name"),
			LastName:      t.Cell(row, "Last Name"),
			JobTitle:      t.Cell(row, "Job Title"),
			CompanyName:   t.Cell(row, companyCol),
			NormalCompany: t.Cell(row, "Normal Company"),
			Source:        t.Cell(row, "Source"),
			DateCreated:   t.Cell(row, "Date Created"),
			DateUpdated:   t.Cell(row, "Date Updated"),
			ExtraData:     t.Cell(row, "Extra Data"),
		})
	}
	return contacts, nil
}

// CompaniesFromTable maps a company staging table to typed records. Only the
// identity column is required; optional metric columns read as empty and are
// parsed (or rejected) by the scorer.
func CompaniesFromTable(t *Table) ([]model.CompanyRecord, error) {
	if _, ok := t.Column("Company Name"); !ok {
		return nil, eris.New("fetcher: company table missing required column Company Name")
	}

	companies := make([]model.CompanyRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		companies = append(companies, model.CompanyRecord{
			Name:                  t.Cell(row, "Company Name"),
			Rev30D:                t.Cell(row, "Rev <30D (ST)"),
			AnnualRevenue:         t.Cell(row, "Annual Revenue (Growjo)"),
			TotalFunding:          t.Cell(row, "Total Funding Amount"),
			LatestFundingAmount:   t.Cell(row, "Latest Funding Amount"),
			LatestFundingDate:     t.Cell(row, "Latest Funding Date"),
			EmployeeCount:         t.Cell(row, "Current Employee Count (GJ)"),
			EmployeeChangePct:     t.Cell(row, "Employee Change % (GJ)"),
			RevChangePct:          t.Cell(row, "Rev Change % (ST)"),
			CloseStatus:           t.Cell(row, "Close Status"),
			CloseStatusChangeDate: t.Cell(row, "Close Status Change Dt"),
			MakesGames:            t.Cell(row, "Makes Games"),
			F2P:                   t.Cell(row, "F2P"),
			Mobile:                t.Cell(row, "Mobile"),
			FoundedYear:           t.Cell(row, "Founded Year"),
			Type:                  t.Cell(row, "Type"),
			WebsiteURL:            t.Cell(row, "Website URL"),
			LinkedInURL:           t.Cell(row, "Company Linkedin URL"),
			Country:               t.Cell(row, "Country"),
			Flag:                  t.Cell(row, "FLAG"),
			Notes:                 t.Cell(row, "Notes"),
			DiscoverSource:        t.Cell(row, "Discover Source"),
			CreatedDate:           t.Cell(row, "Created Date"),
			NormalizedName:        t.Cell(row, "Normalized Name"),
		})
	}
	return companies, nil
}
