// Copyright 2026 Canonical.

// Package solve implements the configuration solve pipeline. A solve
// runs five phases over a commit payload: snapshot the payload into a
// view, expand every relationship to materialized instance ids under
// the request's resolution policies, evaluate conditional and derived
// properties, validate the expanded state, and compile the result into
// an immutable artifact. Validation errors abort the solve unless the
// request forces it through.
package solve

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/zaputil/zapctx"
	"go.uber.org/zap"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/eval"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/resolve"
	"github.com/condb/condb/internal/validate"
)

// A Solver runs solve pipelines. The zero value uses the wall clock.
type Solver struct {
	Clock clock.Clock
}

// A Request describes one solve: the payload to solve over, the scope
// it was taken from, and the resolution policies to apply. External
// carries instances reachable from other branches, keyed by id; a
// selection referencing one is subject to the cross branch policy.
// Force lets the solve complete even when the validate phase finds
// errors; the artifact then carries the failing validation result.
type Request struct {
	Scope    Scope
	Policies Policies
	Payload  *model.Payload
	External map[string]*model.Instance
	Force    bool
}

// Solve runs the pipeline and returns the compiled artifact.
func (s *Solver) Solve(ctx context.Context, req Request) (*Artifact, error) {
	const op = errors.Op("solve.Solve")

	clk := s.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	policies := req.Policies.withDefaults()
	started := clk.Now()

	art := &Artifact{
		ID:       uuid.NewString(),
		Scope:    req.Scope,
		Policies: policies,
		Derived:  make(map[string]map[string]interface{}),
	}

	phase := func(name string, since int64) {
		now := clk.Now()
		art.Metadata.Phases = append(art.Metadata.Phases, Phase{
			Name:       name,
			DurationMS: now.Sub(started).Milliseconds() - since,
		})
	}
	elapsed := func() int64 {
		var total int64
		for _, p := range art.Metadata.Phases {
			total += p.DurationMS
		}
		return total
	}

	// Snapshot.
	view := resolve.NewPayloadView(req.Payload)
	art.Metadata.Statistics.TotalInstances = len(req.Payload.Instances)
	phase("snapshot", elapsed())

	// Expand.
	selections, err := s.expand(ctx, art, view, policies, req.External)
	if err != nil {
		return nil, errors.E(op, err)
	}
	phase("expand", elapsed())

	// Evaluate.
	resolver := materializedResolver{
		view:       view,
		external:   req.External,
		selections: selections,
	}
	s.evaluate(ctx, art, view, resolver)
	phase("evaluate", elapsed())

	// Validate. Instances borrowed from other branches under the cross
	// branch policy join the validation view so the expanded selections
	// check out against real candidates.
	valView := view
	if ext := usedExternal(view, req.External, selections); len(ext) > 0 {
		payload := *req.Payload
		payload.Instances = append(append([]model.Instance{}, req.Payload.Instances...), ext...)
		valView = resolve.NewPayloadView(&payload)
	}
	art.Validation = validate.View(valView)
	phase("validate", elapsed())
	if !art.Validation.Valid && !req.Force {
		return nil, errors.E(op, errors.CodeValidationConflict,
			fmt.Sprintf("validation found %d errors", len(art.Validation.Errors)))
	}

	// Compile.
	art.CreatedAt = clk.Now()
	art.Metadata.TotalTimeMS = art.CreatedAt.Sub(started).Milliseconds()
	phase("compile", elapsed())
	zapctx.Debug(ctx, "solve complete",
		zap.String("artifact", art.ID),
		zap.Stringer("scope", art.Scope),
		zap.Int("instances", art.Metadata.Statistics.TotalInstances),
		zap.Int("issues", len(art.Metadata.Issues)))
	return art, nil
}

// usedExternal returns the external instances that made it into a
// materialized selection, in id order.
func usedExternal(view *resolve.View, external map[string]*model.Instance, selections map[string]map[string][]string) []model.Instance {
	var ids []string
	seen := make(map[string]bool)
	for _, rels := range selections {
		for _, sel := range rels {
			for _, id := range sel {
				if seen[id] || view.Instance(id) != nil {
					continue
				}
				if external[id] != nil {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	sort.Strings(ids)
	out := make([]model.Instance, len(ids))
	for i, id := range ids {
		out[i] = *external[id]
	}
	return out
}

// expand materializes every relationship of every instance and applies
// the resolution policies to the result. It returns the materialized
// selections keyed by instance id and relationship name.
func (s *Solver) expand(ctx context.Context, art *Artifact, view *resolve.View, policies Policies, external map[string]*model.Instance) (map[string]map[string][]string, error) {
	schema := view.Schema()
	selections := make(map[string]map[string][]string)
	instances := view.Instances()
	for i := range instances {
		inst := &instances[i]
		class := schema.Class(inst.Class)
		if class == nil {
			class = schema.ClassByID(inst.Class)
		}
		if class == nil {
			return nil, errors.E(errors.CodeClassNotFound, fmt.Sprintf("instance %q has unknown class %q", inst.ID, inst.Class))
		}
		expanded := ExpandedInstance{
			ID:            inst.ID,
			Class:         inst.Class,
			Domain:        inst.Domain,
			Properties:    make(map[string]interface{}),
			Relationships: make(map[string]ResolvedRelationship, len(class.Relationships)),
		}
		selections[inst.ID] = make(map[string][]string, len(class.Relationships))
		for j := range class.Relationships {
			rel := &class.Relationships[j]
			rr, err := s.expandRelationship(art, view, policies, external, inst, rel)
			if err != nil {
				return nil, err
			}
			expanded.Relationships[rel.Name] = rr
			selections[inst.ID][rel.Name] = rr.IDs
			art.Metadata.Statistics.RelationshipsResolved++
		}
		art.Configuration = append(art.Configuration, expanded)
	}
	return selections, nil
}

func (s *Solver) expandRelationship(art *Artifact, view *resolve.View, policies Policies, external map[string]*model.Instance, inst *model.Instance, rel *model.RelationshipDef) (ResolvedRelationship, error) {
	sel, err := view.Relationship(inst, rel.Name)
	if err != nil {
		return ResolvedRelationship{}, err
	}
	rr := ResolvedRelationship{Resolved: sel.Resolved}
	if sel.Resolved {
		rr.IDs = sel.IDs
		if _, ok := inst.Relationships[rel.Name]; ok {
			rr.Method = MethodExplicitIDs
		} else {
			rr.Method = MethodPoolFilter
		}
	} else {
		// An unresolved selection is materialized as its candidate
		// pool so downstream consumers see the available choices.
		rr.IDs = sel.Pool
		rr.Method = MethodSchemaDefault
	}
	if rr.IDs, err = s.applyReferencePolicies(art, view, policies, external, inst, rel, rr.IDs, &rr); err != nil {
		return ResolvedRelationship{}, err
	}
	if len(rr.IDs) == 0 {
		if err := s.applyEmptyPolicy(art, view, policies, inst, rel, &rr); err != nil {
			return ResolvedRelationship{}, err
		}
	}
	if max := policies.MaxSelectionSize; max != nil && len(rr.IDs) > *max {
		return ResolvedRelationship{}, errors.E(errors.CodeSelectionTooLarge,
			fmt.Sprintf("relationship %q on instance %q resolves to %d instances, the limit is %d", rel.Name, inst.ID, len(rr.IDs), *max))
	}
	if rr.IDs == nil {
		rr.IDs = []string{}
	}
	return rr, nil
}

// applyReferencePolicies filters a materialized id list according to
// the cross branch and missing instance policies.
func (s *Solver) applyReferencePolicies(art *Artifact, view *resolve.View, policies Policies, external map[string]*model.Instance, inst *model.Instance, rel *model.RelationshipDef, ids []string, rr *ResolvedRelationship) ([]string, error) {
	out := ids[:0:0]
	for _, id := range ids {
		if view.Instance(id) != nil {
			out = append(out, id)
			continue
		}
		if _, ok := external[id]; ok {
			switch policies.CrossBranch {
			case CrossBranchReject:
				return nil, errors.E(errors.CodeCrossBranchReference,
					fmt.Sprintf("relationship %q on instance %q references instance %q from another branch", rel.Name, inst.ID, id))
			case CrossBranchAllowWithWarnings:
				art.Metadata.Issues = append(art.Metadata.Issues, Issue{
					Severity:  SeverityWarning,
					Message:   fmt.Sprintf("relationship %q references instance %q from another branch", rel.Name, id),
					Component: inst.ID,
				})
			}
			out = append(out, id)
			continue
		}
		switch policies.MissingInstance {
		case MissingInstanceFail:
			return nil, errors.E(errors.CodeMissingCandidate,
				fmt.Sprintf("relationship %q on instance %q references unknown instance %q", rel.Name, inst.ID, id))
		case MissingInstancePlaceholder:
			rr.Notes = append(rr.Notes, fmt.Sprintf("kept placeholder for missing instance %q", id))
			out = append(out, id)
		default:
			rr.Notes = append(rr.Notes, fmt.Sprintf("skipped missing instance %q", id))
		}
	}
	return out, nil
}

// applyEmptyPolicy handles a relationship whose materialized selection
// is empty. Under the fallback policy the selection is re-resolved
// from the schema's default pool, ignoring the instance override.
func (s *Solver) applyEmptyPolicy(art *Artifact, view *resolve.View, policies Policies, inst *model.Instance, rel *model.RelationshipDef, rr *ResolvedRelationship) error {
	switch policies.EmptySelection {
	case EmptySelectionFail:
		return errors.E(errors.CodeEmptySelection,
			fmt.Sprintf("relationship %q on instance %q resolves to no instances", rel.Name, inst.ID))
	case EmptySelectionFallback:
		if _, ok := inst.Relationships[rel.Name]; !ok {
			return nil
		}
		stripped := *inst
		stripped.Relationships = make(map[string]model.RelationshipSelection, len(inst.Relationships))
		for name, sel := range inst.Relationships {
			if name != rel.Name {
				stripped.Relationships[name] = sel
			}
		}
		sel, err := view.Relationship(&stripped, rel.Name)
		if err != nil {
			return err
		}
		if sel.Resolved {
			rr.IDs = sel.IDs
		} else {
			rr.IDs = sel.Pool
		}
		rr.Method = MethodFallback
		rr.Resolved = sel.Resolved
		rr.Notes = append(rr.Notes, "fell back to the schema default pool")
	}
	return nil
}

// evaluate computes concrete values for every property of every
// instance and every derived definition on its class. Evaluation
// problems are recorded as issues rather than aborting the solve.
func (s *Solver) evaluate(ctx context.Context, art *Artifact, view *resolve.View, resolver eval.Resolver) {
	schema := view.Schema()
	ev := eval.New(schema, resolver)
	instances := view.Instances()
	for i := range instances {
		inst := &instances[i]
		expanded := &art.Configuration[i]
		for name, pv := range inst.Properties {
			switch pv.Kind() {
			case model.KindLiteral:
				expanded.Properties[name] = pv.Literal.Value
			case model.KindConditional:
				value, err := ev.Conditional(inst, pv.Conditional)
				if err != nil {
					art.Metadata.Issues = append(art.Metadata.Issues, Issue{
						Severity:  SeverityError,
						Message:   fmt.Sprintf("conditional property %q: %s", name, err),
						Component: inst.ID,
					})
					continue
				}
				expanded.Properties[name] = value
				art.Metadata.Statistics.ConditionalsEvaluated++
			}
		}
		class := schema.Class(inst.Class)
		if class == nil {
			class = schema.ClassByID(inst.Class)
		}
		if class == nil {
			continue
		}
		for j := range class.Derived {
			def := &class.Derived[j]
			value, err := ev.Derived(inst, def)
			if err != nil {
				art.Metadata.Issues = append(art.Metadata.Issues, Issue{
					Severity:  SeverityError,
					Message:   fmt.Sprintf("derived property %q: %s", def.Name, err),
					Component: inst.ID,
				})
				continue
			}
			if art.Derived[inst.ID] == nil {
				art.Derived[inst.ID] = make(map[string]interface{})
			}
			art.Derived[inst.ID][def.Name] = value
			expanded.Properties[def.Name] = value
			art.Metadata.Statistics.DerivedCalculated++
		}
	}
}

// materializedResolver exposes the expand phase's selections to the
// evaluator, falling back to the view for instances it does not know.
type materializedResolver struct {
	view       *resolve.View
	external   map[string]*model.Instance
	selections map[string]map[string][]string
}

func (r materializedResolver) ResolvedSelection(inst *model.Instance, rel string) ([]string, error) {
	if sels, ok := r.selections[inst.ID]; ok {
		if ids, ok := sels[rel]; ok {
			return ids, nil
		}
	}
	return r.view.ResolvedSelection(inst, rel)
}

func (r materializedResolver) Instance(id string) *model.Instance {
	if inst := r.view.Instance(id); inst != nil {
		return inst
	}
	return r.external[id]
}
