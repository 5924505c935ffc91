package redis

import "fmt"

// Redis key naming conventions for hrflow data.
// All keys are prefixed with "hrflow:" to avoid collisions.

const keyPrefix = "hrflow:"

// ── Run keys ──

// runKey returns the key for a run entity: hrflow:run:{id}
func runKey(id string) string { return keyPrefix + "run:" + id }

// runIDsKey is the Set tracking all run IDs for enumeration.
const runIDsKey = keyPrefix + "run_ids"

// checkpointKey returns the key for a checkpoint: hrflow:checkpoint:{runID}:{seq}
func checkpointKey(runID string, seq int) string {
	return fmt.Sprintf("%scheckpoint:%s:%d", keyPrefix, runID, seq)
}

// checkpointSeqKey returns the Sorted Set key indexing checkpoint seqs
// for a run, scored by seq.
func checkpointSeqKey(runID string) string {
	return keyPrefix + "checkpoint_seq:" + runID
}

// ── Personnel keys ──

// candidateKey returns the key for a candidate entity: hrflow:candidate:{id}
func candidateKey(id string) string { return keyPrefix + "candidate:" + id }

// candidateIDsKey is the Set tracking all candidate IDs.
const candidateIDsKey = keyPrefix + "candidate_ids"

// employeeKey returns the key for an employee entity: hrflow:employee:{id}
func employeeKey(id string) string { return keyPrefix + "employee:" + id }

// employeeIDsKey is the Set tracking all employee IDs.
const employeeIDsKey = keyPrefix + "employee_ids"

// postingKey returns the key for a job posting entity: hrflow:posting:{id}
func postingKey(id string) string { return keyPrefix + "posting:" + id }

// postingIDsKey is the Set tracking all posting IDs.
const postingIDsKey = keyPrefix + "posting_ids"

// interviewKey returns the key for an interview entity: hrflow:interview:{id}
func interviewKey(id string) string { return keyPrefix + "interview:" + id }

// interviewIDsKey is the Set tracking all interview IDs.
const interviewIDsKey = keyPrefix + "interview_ids"

// reviewKey returns the key for a performance review entity: hrflow:review:{id}
func reviewKey(id string) string { return keyPrefix + "review:" + id }

// reviewIDsKey is the Set tracking all review IDs.
const reviewIDsKey = keyPrefix + "review_ids"

// onboardingKey returns the key for an onboarding record: hrflow:onboarding:{id}
func onboardingKey(id string) string { return keyPrefix + "onboarding:" + id }

// onboardingIDsKey is the Set tracking all onboarding IDs.
const onboardingIDsKey = keyPrefix + "onboarding_ids"

// ── Notification keys ──

// notificationKey returns the key for a notification: hrflow:notification:{id}
func notificationKey(id string) string { return keyPrefix + "notification:" + id }

// notificationLogKey is the List of notification IDs in send order.
const notificationLogKey = keyPrefix + "notification_log"
