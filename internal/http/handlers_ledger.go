package http

import (
	"errors"
	"net/http"

	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/log"
	"caixa/internal/profit"
)

type stateResponse struct {
	Version          uint64             `json:"version"`
	Balance          core.Money         `json:"balance"`
	InitialBalance   core.Money         `json:"initialBalance"`
	EmergencyReserve core.Money         `json:"emergencyReserve"`
	TotalReceivable  core.Money         `json:"totalReceivable"`
	Transactions     []core.Transaction `json:"transactions"`
	Debtors          []core.Debtor      `json:"debtors"`
	Sales            []core.SaleRecord  `json:"sales"`
}

type catalogResponse struct {
	Categories map[core.TransactionType][]string `json:"categories"`
	Products   []core.Product                    `json:"products"`
}

type profitResponse struct {
	Products []profit.ProductProfit `json:"products"`
	Total    core.Money             `json:"total"`
}

type debtorResponse struct {
	Updated     bool              `json:"updated"`
	Found       bool              `json:"found"`
	Previous    core.Money        `json:"previous"`
	Current     core.Money        `json:"current"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
}

type saleResponse struct {
	Recorded bool                 `json:"recorded"`
	Product  profit.ProductProfit `json:"product"`
	Total    core.Money           `json:"total"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, version := s.ledger.Snapshot()
	settings := s.ledger.Settings()

	NewJSONResponse().Data(stateResponse{
		Version:          version,
		Balance:          ledger.ComputeBalance(settings.InitialBalance, st.Transactions),
		InitialBalance:   settings.InitialBalance,
		EmergencyReserve: settings.EmergencyReserve,
		TotalReceivable:  ledger.TotalReceivable(st.Debtors),
		Transactions:     st.Transactions,
		Debtors:          st.Debtors,
		Sales:            st.Sales,
	}).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.summary(r.Context())).Write(w)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	c := s.ledger.Catalog()
	NewJSONResponse().Data(catalogResponse{
		Categories: map[core.TransactionType][]string{
			core.Entrada: c.CategoriesFor(core.Entrada),
			core.Saida:   c.CategoriesFor(core.Saida),
		},
		Products: c.Products,
	}).Write(w)
}

func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	products, total := s.ledger.ProfitBreakdown()
	NewJSONResponse().Data(profitResponse{Products: products, Total: total}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request body").Write(w)
		return
	}

	typ, err := core.ParseTransactionType(p.Get("type"))
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	amount, err := core.ParseMoney(p.Get("amount"))
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	date, err := parseDateValue(p.Get("date"), s.now())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	tx, err := s.ledger.AddTransaction(r.Context(), core.TransactionInput{
		Date:        date,
		Type:        typ,
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Amount:      amount,
	})
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Transaction rejected",
			log.FieldType, string(typ),
			log.FieldCategory, p.Get("category"),
			log.FieldError, err)
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Data(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := firstNonEmpty(sanitizeInput(r.PathValue("id")), sanitizeInput(r.URL.Query().Get("id")))
	if id == "" {
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err != nil {
			BadRequestError("Malformed request body").Write(w)
			return
		}
		id = p.Get("id")
	}
	if id == "" {
		BadRequestError("Missing transaction id").Write(w)
		return
	}

	deleted := s.ledger.DeleteTransaction(r.Context(), id)
	NewJSONResponse().Data(map[string]any{"id": id, "deleted": deleted}).Write(w)
}

func (s *Server) handleUpdateDebtor(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request body").Write(w)
		return
	}

	id := p.Get("id")
	if id == "" {
		BadRequestError("Missing debtor id").Write(w)
		return
	}
	amount, err := core.ParseMoney(p.Get("amount"))
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	change := s.ledger.UpdateDebtorAmount(r.Context(), id, amount)
	NewJSONResponse().Data(debtorResponse{
		Updated:     change.Synthetic != nil,
		Found:       change.Found,
		Previous:    change.Previous,
		Current:     change.Current,
		Transaction: change.Synthetic,
	}).Write(w)
}

func (s *Server) handleRecordSale(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request body").Write(w)
		return
	}

	productID := p.Get("productId")
	if productID == "" {
		BadRequestError("Missing product id").Write(w)
		return
	}
	qty, err := core.ParseQuantity(p.Get("quantity"))
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	date, err := parseSaleDate(p.Get("date"))
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	if err := s.ledger.RecordSale(r.Context(), productID, qty, date); err != nil {
		if errors.Is(err, core.ErrInvalidQuantity) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Record sale failed", log.FieldError, err)
		InternalServerError("Failed to record sale").Write(w)
		return
	}

	st, _ := s.ledger.Snapshot()
	catalog := s.ledger.Catalog()
	NewJSONResponse().Status(http.StatusCreated).Data(saleResponse{
		Recorded: true,
		Product:  profit.ProfitForProduct(st.Sales, catalog, productID),
		Total:    profit.TotalProfit(st.Sales, catalog),
	}).Write(w)
}
