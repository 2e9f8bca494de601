// Package menu maintains the function tree: entity registration into the
// navigation hierarchy and role-filtered menu tree assembly.
package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/i18n"
	"github.com/aethra/basis/internal/models"
	"github.com/aethra/basis/internal/template"
)

const (
	rootCode      = "APP.ROOT"
	rootName      = "Application"
	defaultDomain = "CUSTOM"

	domainDefaultSortOrder = 100
)

// domainIcons maps well-known domain codes to their menu icons.
var domainIcons = map[string]string{
	"SYS":    "setting",
	"CRM":    "team",
	"SCM":    "branches",
	"FA":     "dollar",
	"HR":     "user",
	"MFM":    "build",
	"CUSTOM": "appstore",
}

// RegisterResult reports the outcome of one entity registration.
type RegisterResult struct {
	Success           bool       `json:"success"`
	DomainCode        string     `json:"domainCode"`
	FunctionCode      string     `json:"functionCode"`
	TemplateBindingID *uuid.UUID `json:"templateBindingId,omitempty"`
	Warning           string     `json:"warning,omitempty"`
}

// EntityMenuRegistrar wires published entities into the function tree.
type EntityMenuRegistrar struct {
	db        *gorm.DB
	templates *template.Service
}

// NewEntityMenuRegistrar creates the registrar over the given database.
func NewEntityMenuRegistrar(db *gorm.DB, templates *template.Service) *EntityMenuRegistrar {
	return &EntityMenuRegistrar{db: db, templates: templates}
}

// RegisterEntity ensures the function chain for an entity exists and is
// well-formed: root, domain, the domain's entity container, and the entity
// leaf. Misplaced or misnamed nodes are repaired in place so repeated
// registration never duplicates. The leaf is linked to the entity's resolved
// list binding and that binding's required function code is rewritten to the
// leaf's code.
func (r *EntityMenuRegistrar) RegisterEntity(ctx context.Context, entity *models.EntityDefinition, registeredBy string) (*RegisterResult, error) {
	domainCode := strings.ToUpper(strings.TrimSpace(entity.Category))
	if domainCode == "" {
		domainCode = defaultDomain
	}

	root, err := r.ensureNode(ctx, nodeSpec{
		code:      rootCode,
		name:      rootName,
		isMenu:    true,
		sortOrder: 0,
	})
	if err != nil {
		return nil, err
	}

	domainName, domainIcon, domainSort := r.domainMetadata(ctx, domainCode)
	domain, err := r.ensureNode(ctx, nodeSpec{
		parentID:  &root.ID,
		code:      domainCode,
		name:      domainName,
		icon:      domainIcon,
		isMenu:    true,
		sortOrder: domainSort,
	})
	if err != nil {
		return nil, err
	}

	container, err := r.ensureNode(ctx, nodeSpec{
		parentID:  &domain.ID,
		code:      domainCode + ".ENTITY",
		name:      "Entities",
		isMenu:    true,
		sortOrder: 0,
	})
	if err != nil {
		return nil, err
	}

	leafCode := container.Code + "." + strings.ToUpper(entity.EntityName)
	leafName := i18n.Resolve(entity.DisplayName.Strings(), entity.EntityName)
	leaf, err := r.ensureNode(ctx, nodeSpec{
		parentID:    &container.ID,
		code:        leafCode,
		name:        leafName,
		displayName: entity.DisplayName,
		icon:        entity.Icon,
		route:       "/dynamic-entity/" + entity.FullTypeName,
		isMenu:      true,
		sortOrder:   entity.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{
		Success:      true,
		DomainCode:   domainCode,
		FunctionCode: leaf.Code,
	}

	bindingID, warning, err := r.linkListBinding(ctx, entity, leaf.Code)
	if err != nil {
		return nil, err
	}
	result.TemplateBindingID = bindingID
	result.Warning = warning

	slog.Info("[menu] entity registered",
		"entity", entity.FullTypeName,
		"functionCode", leaf.Code,
		"registeredBy", registeredBy)
	return result, nil
}

type nodeSpec struct {
	parentID    *uuid.UUID
	code        string
	name        string
	displayName models.JSONB
	icon        string
	route       string
	isMenu      bool
	sortOrder   int
}

// ensureNode creates the node for a code when missing, otherwise repairs its
// parent, name, icon, route and sort order in place. Code uniquely determines
// tree position, so there is never more than one node per code.
func (r *EntityMenuRegistrar) ensureNode(ctx context.Context, spec nodeSpec) (*models.FunctionNode, error) {
	var node models.FunctionNode
	err := r.db.WithContext(ctx).Where("code = ?", spec.code).First(&node).Error

	if err == gorm.ErrRecordNotFound {
		node = models.FunctionNode{
			ParentID:    spec.parentID,
			Code:        spec.code,
			Name:        spec.name,
			DisplayName: spec.displayName,
			Icon:        spec.icon,
			Route:       spec.route,
			IsMenu:      spec.isMenu,
			SortOrder:   spec.sortOrder,
		}
		if err := r.db.WithContext(ctx).Create(&node).Error; err != nil {
			return nil, err
		}
		return &node, nil
	}
	if err != nil {
		return nil, err
	}

	changed := false
	if !uuidPtrEqual(node.ParentID, spec.parentID) {
		node.ParentID = spec.parentID
		changed = true
	}
	if spec.name != "" && node.Name != spec.name {
		node.Name = spec.name
		changed = true
	}
	if spec.icon != "" && node.Icon != spec.icon {
		node.Icon = spec.icon
		changed = true
	}
	if spec.route != "" && node.Route != spec.route {
		node.Route = spec.route
		changed = true
	}
	if node.SortOrder != spec.sortOrder {
		node.SortOrder = spec.sortOrder
		changed = true
	}
	if !node.IsMenu && spec.isMenu {
		node.IsMenu = true
		changed = true
	}

	if changed {
		if err := r.db.WithContext(ctx).Save(&node).Error; err != nil {
			return nil, err
		}
		slog.Info("[menu] function node repaired", "code", node.Code)
	}
	return &node, nil
}

// domainMetadata resolves a domain's display name, icon and sort order from
// its EntityDomain record. The icon table and default order apply only when
// no record exists; a found record's sort order is authoritative, zero
// included.
func (r *EntityMenuRegistrar) domainMetadata(ctx context.Context, domainCode string) (name, icon string, sortOrder int) {
	icon = domainIcons[domainCode]
	if icon == "" {
		icon = domainIcons[defaultDomain]
	}
	sortOrder = domainDefaultSortOrder
	name = domainCode

	var domain models.EntityDomain
	err := r.db.WithContext(ctx).Where("code = ?", domainCode).First(&domain).Error
	if err != nil {
		return name, icon, sortOrder
	}

	if resolved := i18n.Resolve(domain.Name.Strings(), ""); resolved != "" {
		name = resolved
	}
	if domain.Icon != "" {
		icon = domain.Icon
	}
	return name, icon, domain.SortOrder
}

// linkListBinding resolves the entity's list binding and rewrites its required
// function code to the leaf's code so permission checks and tree position stay
// in lockstep. A missing binding is a warning, not a failure.
func (r *EntityMenuRegistrar) linkListBinding(ctx context.Context, entity *models.EntityDefinition, leafCode string) (*uuid.UUID, string, error) {
	resolved, err := r.templates.ResolveBinding(ctx, entity.FullTypeName, models.UsageList)
	if err != nil {
		return nil, "", err
	}
	if resolved == nil {
		return nil, fmt.Sprintf("no list template binding found for %s", entity.FullTypeName), nil
	}

	if resolved.FromStateBinding {
		binding := resolved.StateBinding
		if binding.RequiredFunctionCode != leafCode {
			binding.RequiredFunctionCode = leafCode
			if err := r.db.WithContext(ctx).Save(binding).Error; err != nil {
				return nil, "", err
			}
		}
		return &binding.ID, "", nil
	}

	binding := resolved.Binding
	if binding.RequiredFunctionCode != leafCode {
		binding.RequiredFunctionCode = leafCode
		if err := r.db.WithContext(ctx).Save(binding).Error; err != nil {
			return nil, "", err
		}
	}
	return &binding.ID, "", nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
