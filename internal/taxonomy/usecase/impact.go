package usecase

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/i18n"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy"
	"go.uber.org/zap"
)

func (uc *taxonomyUseCase) GetDeleteImpact(ctx context.Context, groupID string) (*model.DeleteImpact, error) {
	var impact *model.DeleteImpact
	err := postgres.RetryTransient(ctx, retryBackoff, func() error {
		var err error
		impact, err = uc.computeImpact(ctx, uc.repo, uc.repo.FindGroupByID, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return impact, nil
}

// DeleteGroup recomputes the impact inside the deleting transaction, holding a
// lock on the group, so what is deleted is exactly what is reported. It is
// not retried.
func (uc *taxonomyUseCase) DeleteGroup(ctx context.Context, groupID string) (*model.DeleteImpact, error) {
	var (
		impact   *model.DeleteImpact
		removed  struct{ assignments, values, groups int64 }
		affected []string
	)
	err := uc.tx.Execute(ctx, func(repo taxonomy.Repository) error {
		var err error
		impact, err = uc.computeImpact(ctx, repo, repo.LockGroup, groupID)
		if err != nil {
			return err
		}
		if impact.AssignmentsAffected > 0 {
			if affected, err = repo.AffectedProductIDs(ctx, impact.GroupIDs); err != nil {
				return err
			}
		}
		if removed.assignments, err = repo.DeleteAssignmentsByGroups(ctx, impact.GroupIDs); err != nil {
			return err
		}
		if removed.values, err = repo.DeleteValuesByGroups(ctx, impact.GroupIDs); err != nil {
			return err
		}
		removed.groups, err = repo.DeleteGroups(ctx, impact.GroupIDs)
		return err
	})
	if err != nil {
		if !apperr.IsNotFound(err) {
			uc.logger.Error("failed to delete characteristic group", zap.String("group_id", groupID), zap.Error(err))
		}
		return nil, err
	}

	uc.logger.Info("characteristic group deleted",
		zap.String("group_id", groupID),
		zap.Strings("group_ids", impact.GroupIDs),
		zap.Int64("groups_deleted", removed.groups),
		zap.Int64("values_deleted", removed.values),
		zap.Int64("assignments_deleted", removed.assignments),
		zap.Int("affected_products", impact.AffectedProducts),
	)
	uc.audit(ctx, model.AuditGroupDeleted, entityGroup, groupID, impact, nil)
	uc.invalidate(ctx)
	uc.reindex(affected)
	return impact, nil
}

// computeImpact fails as a whole; a partially computed impact is never returned.
func (uc *taxonomyUseCase) computeImpact(ctx context.Context, repo taxonomy.Repository, find taxonomy.GroupFinder, groupID string) (*model.DeleteImpact, error) {
	group, err := find(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperr.NotFound("characteristic group", groupID)
	}

	sub, err := taxonomy.ResolveSubtree(ctx, group.ID, uc.opts.GuardDepth, repo.FindChildGroups)
	if err != nil {
		return nil, err
	}

	impact := &model.DeleteImpact{
		Group:                  *group,
		ChildGroups:            sub.Descendants,
		AffectedProductsSample: []model.ProductRef{},
		GroupIDs:               sub.IDs(),
	}
	if impact.ChildGroups == nil {
		impact.ChildGroups = []model.CharacteristicGroup{}
	}

	if impact.ValuesInGroup, err = repo.CountValues(ctx, []string{group.ID}); err != nil {
		return nil, err
	}
	if len(sub.Descendants) > 0 {
		if impact.ValuesInChildGroups, err = repo.CountValues(ctx, sub.DescendantIDs()); err != nil {
			return nil, err
		}
	}
	if impact.AssignmentsAffected, err = repo.CountAssignments(ctx, impact.GroupIDs); err != nil {
		return nil, err
	}
	if impact.AssignmentsAffected > 0 {
		if impact.AffectedProducts, err = repo.CountAffectedProducts(ctx, impact.GroupIDs); err != nil {
			return nil, err
		}
		sample, err := repo.SampleAffectedProducts(ctx, impact.GroupIDs, uc.opts.SampleSize)
		if err != nil {
			return nil, err
		}
		if sample != nil {
			impact.AffectedProductsSample = sample
		}
	}

	impact.Warnings = impactWarnings(ctx, impact)
	return impact, nil
}

func impactWarnings(ctx context.Context, impact *model.DeleteImpact) []string {
	warnings := []string{}
	if n := len(impact.ChildGroups); n > 0 {
		warnings = append(warnings, i18n.Localize(ctx, i18n.MsgImpactChildGroups, n, nil))
	}
	if n := impact.ValuesInGroup + impact.ValuesInChildGroups; n > 0 {
		warnings = append(warnings, i18n.Localize(ctx, i18n.MsgImpactValues, n, nil))
	}
	if n := impact.AssignmentsAffected; n > 0 {
		warnings = append(warnings, i18n.Localize(ctx, i18n.MsgImpactAssignments, n, map[string]any{
			"Products": impact.AffectedProducts,
		}))
	}
	return warnings
}
