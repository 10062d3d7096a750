package workflowdsl

import "strings"

// normalizeLegacyTree rewrites two historical wire shapes into the
// modern one, in place, before typed construction (§9 "Legacy
// task_chain / old Parallel encoding"). Never emitted by the encoder.
func normalizeLegacyTree(tasks map[string]any, parentName, parentVersion string) {
	normalizeLegacyParallel(tasks, parentName, parentVersion)
	normalizeLegacyForEach(tasks)
}

// normalizeLegacyParallel reconstructs branch_workflows for a Parallel
// operator whose branch bodies were emitted as sibling tasks in the
// parent map with the parallel's id injected into their dependencies
// (the pre-fork-only encoding). A task is claimed for a branch by
// walking forward from that branch's declared head(s) along the
// sibling dependents graph; a task already claimed by an earlier
// branch is left alone, which is the best a structural walk can do
// when the legacy form carries no explicit branch membership of its
// own beyond the head list.
func normalizeLegacyParallel(tasks map[string]any, parentName, parentVersion string) {
	dependents := make(map[string][]string)
	for id, raw := range tasks {
		body, ok := asMap(raw)
		if !ok {
			continue
		}
		for _, dep := range asStringSlice(body["dependencies"]) {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	for id, raw := range tasks {
		body, ok := asMap(raw)
		if !ok || body["operator_type"] != string(OperatorParallel) {
			continue
		}
		if _, hasModern := body["branch_workflows"]; hasModern {
			continue
		}
		branchesRaw, ok := asMap(body["branches"])
		if !ok {
			continue
		}

		claimed := map[string]bool{}
		branchWorkflows := map[string]any{}
		for branchName, headsRaw := range branchesRaw {
			heads := asStringSlice(headsRaw)
			memberIDs := map[string]bool{}
			queue := append([]string{}, heads...)
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				if memberIDs[cur] || claimed[cur] {
					continue
				}
				if _, exists := tasks[cur]; !exists {
					continue
				}
				memberIDs[cur] = true
				claimed[cur] = true
				queue = append(queue, dependents[cur]...)
			}

			branchTasks := map[string]any{}
			for tid := range memberIDs {
				branchTasks[tid] = tasks[tid]
				delete(tasks, tid)
			}
			branchWorkflows[branchName] = map[string]any{
				"name":    strings.ToLower(parentName + "_" + id + "_" + branchName),
				"version": parentVersion,
				"tasks":   branchTasks,
			}
		}
		body["branch_workflows"] = branchWorkflows
	}
}

// normalizeLegacyForEach converts ForEach.task_chain (an ordered list
// of sibling task ids) into loop_body by looking those ids up in the
// already-decoded sibling map, which is where both old and new
// encodings keep the actual task bodies.
func normalizeLegacyForEach(tasks map[string]any) {
	for _, raw := range tasks {
		body, ok := asMap(raw)
		if !ok || body["operator_type"] != string(OperatorForEach) {
			continue
		}
		if _, hasModern := body["loop_body"]; hasModern {
			continue
		}
		chainRaw, ok := body["task_chain"]
		if !ok {
			continue
		}
		var loopBody []any
		for _, tid := range asStringSlice(chainRaw) {
			sibling, ok := asMap(tasks[tid])
			if !ok {
				continue
			}
			sibling["is_internal_loop_task"] = true
			sibling["task_id"] = tid
			loopBody = append(loopBody, sibling)
		}
		body["loop_body"] = loopBody
		delete(body, "task_chain")
	}
}
