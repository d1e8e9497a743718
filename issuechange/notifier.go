package issuechange

import (
	"context"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/goliatone/go-quality-hooks/webhooks"
)

const (
	TransitionResolve       = "resolve"
	TransitionFalsePositive = "falsepositive"
	TransitionWontFix       = "wontfix"
	TransitionReopen        = "reopen"
)

var meaningfulTransitions = map[string]struct{}{
	TransitionResolve:       {},
	TransitionFalsePositive: {},
	TransitionWontFix:       {},
	TransitionReopen:        {},
}

type Issue struct {
	Key           string
	ComponentUUID string
}

// SearchResult is the set of issues touched by one edit request, together
// with the components already loaded to render it.
type SearchResult struct {
	Issues     []Issue
	Components []core.Component
}

// ChangeContext describes who made a change. Automated scans carry no login.
type ChangeContext struct {
	Login string
}

func (c ChangeContext) IsUser() bool {
	return strings.TrimSpace(c.Login) != ""
}

type Dispatcher interface {
	SendProjectAnalysisUpdate(ctx context.Context, settings core.Settings, analysis core.Analysis, payloadFn webhooks.PayloadFunc) error
}

type PayloadBuilder interface {
	Build(event core.ProjectAnalysisEvent) (core.WebhookPayload, error)
}

// Lookups groups the readers used to walk from issues to the analysis of
// their branch.
type Lookups struct {
	Components core.ComponentReader
	Branches   core.BranchReader
	Snapshots  core.SnapshotReader
	Activities core.ActivityReader
}

type Notifier struct {
	enabled    bool
	lookups    Lookups
	settings   core.SettingsProvider
	dispatcher Dispatcher
	payloads   PayloadBuilder
	logger     core.Logger
}

type Option func(*Notifier)

func WithLogger(logger core.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func NewNotifier(
	cfg core.Config,
	lookups Lookups,
	settings core.SettingsProvider,
	dispatcher Dispatcher,
	payloads PayloadBuilder,
	opts ...Option,
) *Notifier {
	notifier := &Notifier{
		enabled:    cfg.Webhooks.Enabled,
		lookups:    lookups,
		settings:   settings,
		dispatcher: dispatcher,
		payloads:   payloads,
		logger:     glog.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(notifier)
	}
	return notifier
}

func (n *Notifier) OnTypeChange(ctx context.Context, result SearchResult, ruleType string, changeCtx ChangeContext) {
	if len(result.Issues) == 0 || !changeCtx.IsUser() {
		return
	}
	n.notify(ctx, result)
}

func (n *Notifier) OnTransition(ctx context.Context, result SearchResult, transitionKey string, changeCtx ChangeContext) {
	if len(result.Issues) == 0 || !changeCtx.IsUser() {
		return
	}
	if _, ok := meaningfulTransitions[strings.ToLower(strings.TrimSpace(transitionKey))]; !ok {
		return
	}
	n.notify(ctx, result)
}

// target is one short-lived branch whose latest completed analysis could be
// resolved.
type target struct {
	branch   core.BranchRecord
	root     core.Component
	snapshot core.Snapshot
	activity core.CeActivity
}

func (n *Notifier) notify(ctx context.Context, result SearchResult) {
	if n == nil || !n.enabled || n.dispatcher == nil || n.payloads == nil || n.settings == nil {
		return
	}
	targets, err := n.resolve(ctx, result)
	if err != nil {
		core.LogFields(ctx, n.logger, core.LogLevelError, "Failed to resolve issue change webhooks", map[string]any{
			"issues": len(result.Issues),
			"error":  err.Error(),
		})
		return
	}
	for _, t := range targets {
		if err := n.dispatch(ctx, t); err != nil {
			core.LogFields(ctx, n.logger, core.LogLevelError, "Failed to send issue change webhooks", map[string]any{
				"project_uuid":  t.branch.ProjectUUID,
				"branch":        t.branch.Key,
				"analysis_uuid": t.snapshot.UUID,
				"error":         err.Error(),
			})
		}
	}
}

func (n *Notifier) dispatch(ctx context.Context, t target) error {
	settings, err := n.settings.Settings(ctx, t.branch.ProjectUUID)
	if err != nil {
		return err
	}
	analysis, err := core.NewAnalysis(t.branch.ProjectUUID, core.Some(t.snapshot.UUID), core.Some(t.activity.UUID))
	if err != nil {
		return err
	}
	return n.dispatcher.SendProjectAnalysisUpdate(ctx, settings, analysis, func() (core.WebhookPayload, error) {
		return n.payloads.Build(branchEvent(t))
	})
}

// branchEvent describes the branch state after the change. It carries no
// quality gate, analysis date or scanner properties.
func branchEvent(t target) core.ProjectAnalysisEvent {
	return core.ProjectAnalysisEvent{
		CeTask:  core.CeTask{ID: t.activity.UUID, Status: t.activity.Status},
		Project: core.Project{UUID: t.root.UUID, Key: t.root.Key, Name: t.root.Name},
		Branch: core.Some(core.Branch{
			Name:   core.Some(t.branch.Key),
			Type:   core.BranchTypeShort,
			IsMain: false,
		}),
	}
}

// resolve walks issues to components, their short-lived branches, the last
// analysis of each branch and its completed task. Branches missing any link
// are skipped.
func (n *Notifier) resolve(ctx context.Context, result SearchResult) ([]target, error) {
	components, err := n.loadComponents(ctx, result.Components, issueComponentUUIDs(result.Issues))
	if err != nil {
		return nil, err
	}
	rootUUIDs := make([]string, 0, len(components))
	for _, component := range components {
		if !component.MainBranchProjectUUID.IsPresent() {
			continue
		}
		rootUUIDs = append(rootUUIDs, rootOf(component))
	}
	rootUUIDs = uniqueSorted(rootUUIDs)
	if len(rootUUIDs) == 0 || n.lookups.Branches == nil {
		return nil, nil
	}

	branchRecords, err := n.lookups.Branches.SelectByUUIDs(ctx, rootUUIDs)
	if err != nil {
		return nil, err
	}
	shortBranches := make([]core.BranchRecord, 0, len(branchRecords))
	for _, branch := range branchRecords {
		if branch.Type == core.BranchTypeShort {
			shortBranches = append(shortBranches, branch)
		}
	}
	if len(shortBranches) == 0 || n.lookups.Snapshots == nil || n.lookups.Activities == nil {
		return nil, nil
	}
	slices.SortFunc(shortBranches, func(a, b core.BranchRecord) int {
		return strings.Compare(a.UUID, b.UUID)
	})

	branchUUIDs := make([]string, 0, len(shortBranches))
	for _, branch := range shortBranches {
		branchUUIDs = append(branchUUIDs, branch.UUID)
	}
	roots, err := n.loadComponents(ctx, result.Components, branchUUIDs)
	if err != nil {
		return nil, err
	}

	snapshots, err := n.lookups.Snapshots.SelectLastAnalysesByRootComponentUUIDs(ctx, branchUUIDs)
	if err != nil {
		return nil, err
	}
	snapshotByBranch := make(map[string]core.Snapshot, len(snapshots))
	analysisUUIDs := make([]string, 0, len(snapshots))
	for _, snapshot := range snapshots {
		snapshotByBranch[snapshot.ComponentUUID] = snapshot
		analysisUUIDs = append(analysisUUIDs, snapshot.UUID)
	}
	if len(analysisUUIDs) == 0 {
		return nil, nil
	}

	activities, err := n.lookups.Activities.SelectByAnalysisUUIDs(ctx, analysisUUIDs)
	if err != nil {
		return nil, err
	}
	activityByAnalysis := make(map[string]core.CeActivity, len(activities))
	for _, activity := range activities {
		if analysisUUID, ok := activity.AnalysisUUID.Get(); ok {
			activityByAnalysis[analysisUUID] = activity
		}
	}

	targets := make([]target, 0, len(shortBranches))
	for _, branch := range shortBranches {
		root, ok := roots[branch.UUID]
		if !ok {
			continue
		}
		snapshot, ok := snapshotByBranch[branch.UUID]
		if !ok {
			continue
		}
		activity, ok := activityByAnalysis[snapshot.UUID]
		if !ok {
			continue
		}
		targets = append(targets, target{branch: branch, root: root, snapshot: snapshot, activity: activity})
	}
	return targets, nil
}

// loadComponents indexes the wanted components, reading from the database
// only those the search result did not already carry.
func (n *Notifier) loadComponents(ctx context.Context, known []core.Component, wanted []string) (map[string]core.Component, error) {
	byUUID := make(map[string]core.Component, len(wanted))
	knownByUUID := make(map[string]core.Component, len(known))
	for _, component := range known {
		knownByUUID[component.UUID] = component
	}
	var missing []string
	for _, uuid := range wanted {
		if component, ok := knownByUUID[uuid]; ok {
			byUUID[uuid] = component
			continue
		}
		missing = append(missing, uuid)
	}
	if len(missing) == 0 || n.lookups.Components == nil {
		return byUUID, nil
	}
	loaded, err := n.lookups.Components.SelectByUUIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, component := range loaded {
		byUUID[component.UUID] = component
	}
	return byUUID, nil
}

func rootOf(component core.Component) string {
	if root := strings.TrimSpace(component.ProjectUUID); root != "" {
		return root
	}
	return component.UUID
}

func issueComponentUUIDs(issues []Issue) []string {
	uuids := make([]string, 0, len(issues))
	for _, issue := range issues {
		uuids = append(uuids, issue.ComponentUUID)
	}
	return uniqueSorted(uuids)
}

func uniqueSorted(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
