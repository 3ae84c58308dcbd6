package combat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storyforge/internal/dice"
	"storyforge/internal/effect"
	"storyforge/internal/gameerr"
	"storyforge/internal/player"
	"storyforge/internal/progression"
	"storyforge/internal/scene"
)

// PlayerID is the roster id of the player combatant.
const PlayerID = "player"

// BasicAttack is the action name for the attack every player knows.
const BasicAttack = "attack"

// Action is a player turn. An empty Skill is a basic attack. An empty Target
// picks the first living enemy for hostile actions and the player otherwise.
type Action struct {
	Skill  string `json:"skill,omitempty"`
	Target string `json:"target,omitempty"`
}

// Session is one fight. The roster holds the player at index 0 followed by
// the enemies in scene order.
type Session struct {
	id       string
	state    State
	roster   []*Combatant
	turn     int
	round    int
	rules    Rules
	skills   Skills
	known    []string
	attrs    map[string]int
	src      dice.Source
	narrator *Narrator
	events   []Event

	startHP    int
	startMana  int
	experience int
}

// New builds a session in the NotStarted state from the player's current
// state and an enemy roster.
func New(st *player.State, enemies []scene.Enemy, rules Rules, skills Skills, src dice.Source, narrator *Narrator) (*Session, error) {
	if st == nil {
		return nil, gameerr.InvalidAction("no player state")
	}
	if st.Dead() {
		return nil, gameerr.InvalidAction("player cannot fight with no health")
	}
	if len(enemies) == 0 {
		return nil, gameerr.ContentIntegrity("combat needs at least one enemy")
	}
	if src == nil {
		return nil, fmt.Errorf("combat needs a dice source")
	}

	s := &Session{
		id:        uuid.NewString(),
		state:     StateNotStarted,
		rules:     rules,
		skills:    skills,
		known:     append([]string(nil), st.Skills...),
		attrs:     make(map[string]int, len(st.Attributes)),
		src:       src,
		narrator:  narrator,
		startHP:   st.Vitals.Health,
		startMana: st.Vitals.Mana,
	}
	for k, v := range st.Attributes {
		s.attrs[k] = v
	}

	s.roster = append(s.roster, &Combatant{
		ID:      PlayerID,
		Name:    "Player",
		Side:    SidePlayer,
		Level:   st.Progression.Level,
		HP:      st.Vitals.Health,
		MaxHP:   st.Vitals.MaxHealth,
		Mana:    st.Vitals.Mana,
		MaxMana: st.Vitals.MaxMana,
		Defense: max(st.Modifier(player.Constitution), 0),
	})

	seen := map[string]bool{PlayerID: true}
	for i, e := range enemies {
		if e.HP <= 0 {
			return nil, gameerr.ContentIntegrity("enemy %d (%s) has no hp", i, e.Name)
		}
		if e.DamageMax < e.DamageMin {
			return nil, gameerr.ContentIntegrity("enemy %s has damage range [%d, %d]", e.Name, e.DamageMin, e.DamageMax)
		}
		base := strings.ToLower(strings.TrimSpace(e.ID))
		if base == "" {
			base = fmt.Sprintf("enemy-%d", i+1)
		}
		id := base
		for n := 2; seen[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		seen[id] = true
		name := e.Name
		if name == "" {
			name = id
		}
		s.roster = append(s.roster, &Combatant{
			ID:        id,
			Name:      name,
			Side:      SideEnemy,
			Level:     max(e.Level, 1),
			HP:        e.HP,
			MaxHP:     e.HP,
			Attack:    e.Attack,
			Defense:   e.Defense,
			DamageMin: e.DamageMin,
			DamageMax: e.DamageMax,
			XP:        e.Experience,
		})
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current phase.
func (s *Session) State() State { return s.state }

// Round returns the round counter. It is 0 before the session starts.
func (s *Session) Round() int { return s.round }

// Experience returns the experience awarded on victory.
func (s *Session) Experience() int { return s.experience }

// PlayerTurn reports whether the player is the one to act.
func (s *Session) PlayerTurn() bool {
	return s.state == StateInProgress && s.turn == 0
}

// Current returns the combatant whose turn it is.
func (s *Session) Current() Combatant {
	return s.roster[s.turn].copy()
}

// Player returns the player combatant.
func (s *Session) Player() Combatant {
	return s.roster[0].copy()
}

// Enemies returns the enemy roster in initiative order.
func (s *Session) Enemies() []Combatant {
	out := make([]Combatant, 0, len(s.roster)-1)
	for _, c := range s.roster[1:] {
		out = append(out, c.copy())
	}
	return out
}

// Events returns the full combat log.
func (s *Session) Events() []Event {
	return append([]Event(nil), s.events...)
}

// View is a read-only summary of a session.
type View struct {
	ID         string      `json:"id"`
	State      State       `json:"state"`
	Round      int         `json:"round"`
	Turn       string      `json:"turn"`
	Player     Combatant   `json:"player"`
	Enemies    []Combatant `json:"enemies"`
	Experience int         `json:"experience,omitempty"`
}

// View summarizes the session.
func (s *Session) View() View {
	return View{
		ID:         s.id,
		State:      s.state,
		Round:      s.round,
		Turn:       s.roster[s.turn].ID,
		Player:     s.Player(),
		Enemies:    s.Enemies(),
		Experience: s.experience,
	}
}

// Start moves the session to InProgress with the player to act in round 1.
func (s *Session) Start() ([]Event, error) {
	if s.state != StateNotStarted {
		return nil, gameerr.InvalidAction("combat already started")
	}
	mark := len(s.events)
	s.state = StateInProgress
	s.round = 1
	s.turn = 0
	names := make([]string, 0, len(s.roster)-1)
	for _, c := range s.roster[1:] {
		names = append(names, c.Name)
	}
	s.emit(Event{Actor: s.roster[0].Name, Action: ActionStart, Target: strings.Join(names, ", ")})
	return s.since(mark), nil
}

// Act resolves the player's action. Illegal actions return an error and
// leave the session untouched.
func (s *Session) Act(a Action) ([]Event, error) {
	if s.state != StateInProgress {
		return nil, gameerr.InvalidAction("combat is not in progress (%s)", s.state)
	}
	if s.turn != 0 {
		return nil, gameerr.InvalidAction("not the player's turn: %s is acting", s.roster[s.turn].Name)
	}

	skill, basic, err := s.resolveSkill(a.Skill)
	if err != nil {
		return nil, err
	}
	actor := s.roster[0]
	if actor.Mana < skill.ManaCost {
		return nil, gameerr.ResourceExhaustion("%s needs %d mana, have %d", skill.Name, skill.ManaCost, actor.Mana)
	}
	target, err := s.resolveTarget(skill.Kind, a.Target)
	if err != nil {
		return nil, err
	}

	mark := len(s.events)
	actor.Mana -= skill.ManaCost
	bonus := 0
	if skill.Attribute != "" {
		bonus = player.AttributeModifier(s.attribute(skill.Attribute))
	}

	ev := Event{Actor: actor.Name, Target: target.Name, Skill: skill.Name}
	switch skill.Kind {
	case KindDamage:
		amount := max(skill.Base+bonus+actor.EffectiveAttack()-target.EffectiveDefense(), 1)
		target.applyDamage(amount)
		ev.Action, ev.Amount = ActionSkill, amount
		if basic {
			ev.Action, ev.Skill = ActionAttack, ""
		}
		if skill.Status != nil && target.Alive() {
			target.addStatus(*skill.Status)
			ev.Status = skill.Status.Name
		}
	case KindHeal:
		before := target.HP
		target.applyHeal(max(skill.Base+bonus, 0))
		ev.Action, ev.Amount = ActionHeal, target.HP-before
	case KindBuff:
		target.addStatus(*skill.Status)
		ev.Action, ev.Status = ActionBuff, skill.Status.Name
	case KindDebuff:
		target.addStatus(*skill.Status)
		ev.Action, ev.Status = ActionDebuff, skill.Status.Name
	}
	ev.TargetHP = target.HP
	ev.ActorMana = actor.Mana
	s.emit(ev)
	if target.Side == SideEnemy && !target.Alive() {
		s.emit(Event{Actor: actor.Name, Action: ActionDefeated, Target: target.Name})
	}

	s.checkEnd()
	s.advance()
	return s.since(mark), nil
}

// EnemyTurn resolves the acting enemy's attack on the player.
func (s *Session) EnemyTurn() ([]Event, error) {
	if s.state != StateInProgress {
		return nil, gameerr.InvalidAction("combat is not in progress (%s)", s.state)
	}
	if s.turn == 0 {
		return nil, gameerr.InvalidAction("it is the player's turn")
	}
	mark := len(s.events)
	enemy := s.roster[s.turn]
	target := s.roster[0]

	lo, hi := s.rules.EnemyDamageMin, s.rules.EnemyDamageMax
	if enemy.DamageMax > 0 {
		lo, hi = enemy.DamageMin, enemy.DamageMax
	}
	roll := lo + s.src.IntN(hi-lo+1)
	amount := max(roll+enemy.EffectiveAttack()-target.EffectiveDefense(), 0)
	target.applyDamage(amount)
	s.emit(Event{
		Actor:     enemy.Name,
		Action:    ActionEnemyAttack,
		Target:    target.Name,
		Amount:    amount,
		TargetHP:  target.HP,
		ActorMana: enemy.Mana,
	})

	s.checkEnd()
	s.advance()
	return s.since(mark), nil
}

// RunEnemyTurns plays enemy turns until the player is to act or the fight
// ends.
func (s *Session) RunEnemyTurns() ([]Event, error) {
	var out []Event
	for s.state == StateInProgress && s.turn != 0 {
		evs, err := s.EnemyTurn()
		if err != nil {
			return out, err
		}
		out = append(out, evs...)
	}
	return out, nil
}

// Flee ends the session without rewards. It is allowed at any point before
// a terminal state.
func (s *Session) Flee() ([]Event, error) {
	if s.state.Terminal() {
		return nil, gameerr.InvalidAction("combat already ended (%s)", s.state)
	}
	mark := len(s.events)
	if s.round == 0 {
		s.round = 1
	}
	s.state = StateFled
	s.emit(Event{Actor: s.roster[0].Name, Action: ActionFlee, TargetHP: s.roster[0].HP, ActorMana: s.roster[0].Mana})
	return s.since(mark), nil
}

// Settle folds the outcome back into the player's state through the effect
// pipeline: hp and mana changes since the fight began, and experience on
// victory. The session must be over.
func (s *Session) Settle(st *player.State, rules progression.Rules) (*player.State, error) {
	if !s.state.Terminal() {
		return st, gameerr.InvalidAction("combat is still %s", s.state)
	}
	p := s.roster[0]
	e := effect.Effects{
		Health: p.HP - s.startHP,
		Mana:   p.Mana - s.startMana,
	}
	if s.state == StateVictory {
		e.Experience = s.experience
	}
	return effect.Apply(st, e, rules)
}

func (s *Session) resolveSkill(name string) (Skill, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, BasicAttack) {
		return Skill{
			Name:      BasicAttack,
			Kind:      KindDamage,
			Base:      s.rules.BasicAttack,
			Attribute: s.rules.BasicAttribute,
		}, true, nil
	}
	skill, ok := s.skills.Lookup(name)
	if !ok {
		return Skill{}, false, gameerr.InvalidAction("unknown skill %q", name)
	}
	for _, k := range s.known {
		if strings.EqualFold(k, skill.Name) {
			return skill, false, nil
		}
	}
	return Skill{}, false, gameerr.InvalidAction("skill %q has not been learned", skill.Name)
}

func (s *Session) resolveTarget(kind SkillKind, id string) (*Combatant, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if !kind.TargetsEnemy() {
		if id != "" && id != PlayerID {
			return nil, gameerr.InvalidAction("%s skills target the player, not %q", kind, id)
		}
		return s.roster[0], nil
	}
	for _, c := range s.roster[1:] {
		if (id == "" || c.ID == id) && c.Alive() {
			return c, nil
		}
		if c.ID == id {
			return nil, gameerr.InvalidAction("target %q is already defeated", id)
		}
	}
	return nil, gameerr.InvalidAction("invalid target %q", id)
}

func (s *Session) attribute(name string) int {
	if v, ok := s.attrs[strings.ToLower(name)]; ok {
		return v
	}
	return 10
}

// checkEnd applies the termination rule. Player defeat is tested first so a
// session can never reach both outcomes.
func (s *Session) checkEnd() {
	if s.state != StateInProgress {
		return
	}
	p := s.roster[0]
	if !p.Alive() {
		s.state = StateDefeat
		s.emit(Event{Actor: p.Name, Action: ActionDefeat})
		return
	}
	xp := 0
	for _, c := range s.roster[1:] {
		if c.Alive() {
			return
		}
		if c.XP > 0 {
			xp += c.XP
		} else {
			xp += c.Level * s.rules.ExperiencePerEnemyLevel
		}
	}
	s.state = StateVictory
	s.experience = xp
	s.emit(Event{Actor: p.Name, Action: ActionVictory, Amount: xp, TargetHP: p.HP, ActorMana: p.Mana})
}

// advance moves the cursor to the next living combatant, bumping the round
// when it wraps, and ticks the statuses of whoever it lands on.
func (s *Session) advance() {
	for s.state == StateInProgress {
		s.turn++
		if s.turn >= len(s.roster) {
			s.turn = 0
			s.round++
		}
		c := s.roster[s.turn]
		if !c.Alive() {
			continue
		}
		s.tick(c)
		s.checkEnd()
		if c.Alive() {
			return
		}
	}
	if s.state.Terminal() {
		s.turn = 0
	}
}

func (s *Session) tick(c *Combatant) {
	kept := c.Statuses[:0]
	for _, st := range c.Statuses {
		if st.HealthPerTurn != 0 && c.Alive() {
			before := c.HP
			if st.HealthPerTurn > 0 {
				c.applyHeal(st.HealthPerTurn)
			} else {
				c.applyDamage(-st.HealthPerTurn)
			}
			s.emit(Event{Actor: c.Name, Action: ActionStatusTick, Status: st.Name, Amount: c.HP - before, TargetHP: c.HP})
		}
		st.Remaining--
		if st.Remaining <= 0 {
			s.emit(Event{Actor: c.Name, Action: ActionStatusExpired, Status: st.Name, TargetHP: c.HP})
			continue
		}
		kept = append(kept, st)
	}
	c.Statuses = kept
	if c.Side == SideEnemy && !c.Alive() {
		s.emit(Event{Actor: c.Name, Action: ActionDefeated, Target: c.Name})
	}
}

func (s *Session) emit(ev Event) {
	ev.Round = s.round
	ev.Text = s.narrator.Narrate(ev)
	s.events = append(s.events, ev)
}

func (s *Session) since(mark int) []Event {
	return append([]Event(nil), s.events[mark:]...)
}

func (c *Combatant) copy() Combatant {
	out := *c
	out.Statuses = append([]Status(nil), c.Statuses...)
	return out
}
