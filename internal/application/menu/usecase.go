package menu

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/homeflavors/internal/application"
	dommenu "github.com/Zhima-Mochi/homeflavors/internal/domain/menu"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
)

const (
	menuService  = "menu-service"
	useCaseList  = "menu.list"
	catalogPeer  = "mongo"
	catalogQuery = "menu.find"
)

type ListMenuInput struct{}

type ListMenuUseCase struct {
	repo dommenu.Repository
	ins  *application.Instruments
}

var _ application.UseCase[ListMenuInput, []dommenu.Category] = (*ListMenuUseCase)(nil)

func NewListMenuUseCase(repo dommenu.Repository, tel observability.Observability) *ListMenuUseCase {
	return &ListMenuUseCase{repo: repo, ins: application.NewInstruments(tel, menuService)}
}

// Execute reads the whole catalog and groups it by category.
func (uc *ListMenuUseCase) Execute(ctx context.Context, _ ListMenuInput) (_ []dommenu.Category, err error) {
	ctx, run := uc.ins.Start(ctx, useCaseList, "ListMenu")
	defer func() { run.End(err) }()

	callStart := time.Now()
	items, err := uc.repo.All(ctx)
	uc.ins.External(catalogPeer, catalogQuery, application.ExternalOutcome(ctx, err), callStart)
	if err != nil {
		run.Fail("CATALOG_READ_FAILED")
		return nil, fmt.Errorf("menu: %w", err)
	}

	categories := dommenu.Group(items)
	run.Field("items", len(items))
	run.Field("categories", len(categories))
	run.Span().SetAttributes(attribute.Int("menu.items", len(items)))
	return categories, nil
}
